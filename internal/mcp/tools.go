// ABOUTME: Static MCP tool catalog mapping tool names onto store operations.
// ABOUTME: Each tool validates its arguments against the declared schema before dispatch.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/leanlog/internal/store"
)

// toolDef binds a tool name and input schema to its handler.
type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     func(ctx context.Context, userID string, args json.RawMessage) (any, error)
}

// buildToolCatalog returns the full tool registry in stable listing order.
func (s *Server) buildToolCatalog() []toolDef {
	return []toolDef{
		{
			Name:        "weight_get_latest",
			Description: "Get the most recent weight entry, or null if none exist.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
			Handler:     s.toolWeightGetLatest,
		},
		{
			Name:        "weight_create",
			Description: "Record a weight measurement for a date.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"entry_date":{"type":"string","description":"Date in YYYY-MM-DD format"},
				"weight_kg":{"type":"number","description":"Weight in kilograms"},
				"source":{"type":"string","description":"Optional measurement source"}
			},"required":["entry_date","weight_kg"]}`),
			Handler: s.toolWeightCreate,
		},
		{
			Name:        "weight_list_recent",
			Description: "List recent weight entries, newest first.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"limit":{"type":"integer","description":"Max entries to return (default 50, max 200)"}
			},"required":[]}`),
			Handler: s.toolWeightListRecent,
		},
		{
			Name:        "weight_delete",
			Description: "Delete a weight entry by id.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"id":{"type":"string","description":"Weight entry UUID"}
			},"required":["id"]}`),
			Handler: s.toolWeightDelete,
		},
		{
			Name:        "meals_list",
			Description: "List the user's meal templates in display order.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"includeArchived":{"type":"boolean","description":"Include archived meals"}
			},"required":[]}`),
			Handler: s.toolMealsList,
		},
		{
			Name:        "history_day_summaries",
			Description: "Aggregate daily calorie and macro totals over a date range.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"startDate":{"type":"string","description":"Range start, YYYY-MM-DD"},
				"endDate":{"type":"string","description":"Range end, YYYY-MM-DD"}
			},"required":["startDate","endDate"]}`),
			Handler: s.toolHistoryDaySummaries,
		},
		{
			Name:        "entries_get_or_create_day_log",
			Description: "Get the day log for a date, creating it if needed.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"date":{"type":"string","description":"Date in YYYY-MM-DD format"}
			},"required":["date"]}`),
			Handler: s.toolEntriesGetOrCreateDayLog,
		},
		{
			Name:        "entries_add",
			Description: "Add a meal entry to a day log.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"day_log_id":{"type":"string","description":"Day log UUID"},
				"meal_id":{"type":"string","description":"Optional meal template UUID"},
				"name":{"type":"string","description":"Food name"},
				"protein_g":{"type":"number","description":"Protein in grams"},
				"carbs_g":{"type":"number","description":"Carbohydrates in grams"},
				"fat_g":{"type":"number","description":"Fat in grams"},
				"calories_override":{"type":"number","description":"Explicit calories instead of the macro formula"}
			},"required":["day_log_id","name","protein_g","carbs_g","fat_g"]}`),
			Handler: s.toolEntriesAdd,
		},
		{
			Name:        "entries_list_by_day",
			Description: "List all meal entries in a day log.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"day_log_id":{"type":"string","description":"Day log UUID"}
			},"required":["day_log_id"]}`),
			Handler: s.toolEntriesListByDay,
		},
		{
			Name:        "entries_update",
			Description: "Update fields of a meal entry. Omitted fields are unchanged; null clears nullable fields.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"id":{"type":"string","description":"Meal entry UUID"},
				"name":{"type":"string"},
				"protein_g":{"type":"number"},
				"carbs_g":{"type":"number"},
				"fat_g":{"type":"number"},
				"calories_override":{"type":["number","null"]},
				"meal_id":{"type":["string","null"]}
			},"required":["id"]}`),
			Handler: s.toolEntriesUpdate,
		},
		{
			Name:        "entries_delete",
			Description: "Delete a meal entry by id.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"id":{"type":"string","description":"Meal entry UUID"}
			},"required":["id"]}`),
			Handler: s.toolEntriesDelete,
		},
		{
			Name:        "entries_bulkAdd",
			Description: "Add several meal entries to one day log in a single batch.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"day_log_id":{"type":"string","description":"Day log UUID"},
				"entries":{"type":"array","items":{"type":"object","properties":{
					"meal_id":{"type":"string"},
					"name":{"type":"string"},
					"protein_g":{"type":"number"},
					"carbs_g":{"type":"number"},
					"fat_g":{"type":"number"},
					"calories_override":{"type":"number"}
				},"required":["name"]}}
			},"required":["day_log_id","entries"]}`),
			Handler: s.toolEntriesBulkAdd,
		},
		{
			Name:        "entries_bulkDelete",
			Description: "Delete several meal entries. Fails if any entry belongs to another user.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{
				"ids":{"type":"array","items":{"type":"string"},"description":"Meal entry UUIDs"}
			},"required":["ids"]}`),
			Handler: s.toolEntriesBulkDelete,
		},
	}
}

// argError builds an InvalidParams-mapped validation failure.
func argError(format string, a ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidArgument, fmt.Sprintf(format, a...))
}

// decodeArgs strictly unmarshals tool arguments into dst.
func decodeArgs(args json.RawMessage, dst any) error {
	dec := json.NewDecoder(strings.NewReader(string(args)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return argError("invalid arguments: %v", err)
	}
	return nil
}

// requireUUID validates UUID-shaped id arguments.
func requireUUID(field, value string) error {
	if value == "" {
		return argError("%s is required", field)
	}
	if _, err := uuid.Parse(value); err != nil {
		return argError("%s must be a UUID", field)
	}
	return nil
}

func requireNonNegative(field string, value float64) error {
	if value < 0 {
		return argError("%s must be non-negative", field)
	}
	return nil
}

// Weight tools

func (s *Server) toolWeightGetLatest(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	entry, err := s.store.GetLatestWeightEntry(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return weightJSON(entry), nil
}

func (s *Server) toolWeightCreate(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		EntryDate string   `json:"entry_date"`
		WeightKG  *float64 `json:"weight_kg"`
		Source    *string  `json:"source"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.EntryDate == "" {
		return nil, argError("entry_date is required")
	}
	if in.WeightKG == nil {
		return nil, argError("weight_kg is required")
	}

	entry, err := s.store.CreateWeightEntry(ctx, &store.WeightEntry{
		UserID:    userID,
		EntryDate: in.EntryDate,
		WeightKG:  *in.WeightKG,
		Source:    in.Source,
	})
	if err != nil {
		return nil, err
	}
	return weightJSON(entry), nil
}

func (s *Server) toolWeightListRecent(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		Limit *int `json:"limit"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	// An omitted limit gets the store default; an explicit value below 1
	// clamps to 1 rather than falling back to the default.
	limit := 0
	if in.Limit != nil {
		limit = *in.Limit
		if limit < 1 {
			limit = 1
		}
	}

	entries, err := s.store.ListRecentWeightEntries(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(entries))
	for i, entry := range entries {
		out[i] = weightJSON(entry)
	}
	return out, nil
}

func (s *Server) toolWeightDelete(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireUUID("id", in.ID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteWeightEntry(ctx, userID, in.ID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true}, nil
}

// Meal and history tools

func (s *Server) toolMealsList(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		IncludeArchived bool `json:"includeArchived"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	meals, err := s.store.ListMeals(ctx, userID, in.IncludeArchived)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(meals))
	for i, meal := range meals {
		out[i] = map[string]any{
			"id":               meal.ID,
			"name":             meal.Name,
			"order_index":      meal.OrderIndex,
			"archived":         meal.Archived,
			"target_protein_g": meal.TargetProteinG,
			"target_carbs_g":   meal.TargetCarbsG,
			"target_fat_g":     meal.TargetFatG,
			"target_calories":  meal.TargetCalories,
		}
	}
	return out, nil
}

func (s *Server) toolHistoryDaySummaries(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.StartDate == "" {
		return nil, argError("startDate is required")
	}
	if in.EndDate == "" {
		return nil, argError("endDate is required")
	}

	summaries, err := s.store.GetDaySummaries(ctx, userID, in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(summaries))
	for i, summary := range summaries {
		out[i] = map[string]any{
			"log_date":        summary.LogDate,
			"total_calories":  summary.TotalCalories,
			"total_protein":   summary.TotalProtein,
			"total_carbs":     summary.TotalCarbs,
			"total_fat":       summary.TotalFat,
			"entry_count":     summary.EntryCount,
			"target_calories": summary.TargetCalories,
			"notes":           summary.Notes,
		}
	}
	return out, nil
}

// Entry tools

func (s *Server) toolEntriesGetOrCreateDayLog(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		Date string `json:"date"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Date == "" {
		return nil, argError("date is required")
	}

	log, err := s.store.GetOrCreateDayLog(ctx, userID, in.Date)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":                       log.ID,
		"log_date":                 log.LogDate,
		"target_calories_override": log.TargetCaloriesOverride,
		"notes":                    log.Notes,
	}, nil
}

type entryInput struct {
	MealID           *string  `json:"meal_id"`
	Name             string   `json:"name"`
	ProteinG         float64  `json:"protein_g"`
	CarbsG           float64  `json:"carbs_g"`
	FatG             float64  `json:"fat_g"`
	CaloriesOverride *float64 `json:"calories_override"`
}

func (in *entryInput) validate() (store.NewMealEntry, error) {
	if strings.TrimSpace(in.Name) == "" {
		return store.NewMealEntry{}, argError("name is required")
	}
	for field, v := range map[string]float64{"protein_g": in.ProteinG, "carbs_g": in.CarbsG, "fat_g": in.FatG} {
		if err := requireNonNegative(field, v); err != nil {
			return store.NewMealEntry{}, err
		}
	}
	if in.MealID != nil {
		if err := requireUUID("meal_id", *in.MealID); err != nil {
			return store.NewMealEntry{}, err
		}
	}
	return store.NewMealEntry{
		MealID:           in.MealID,
		Name:             in.Name,
		ProteinG:         in.ProteinG,
		CarbsG:           in.CarbsG,
		FatG:             in.FatG,
		CaloriesOverride: in.CaloriesOverride,
	}, nil
}

func (s *Server) toolEntriesAdd(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		DayLogID string `json:"day_log_id"`
		entryInput
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireUUID("day_log_id", in.DayLogID); err != nil {
		return nil, err
	}
	newEntry, err := in.validate()
	if err != nil {
		return nil, err
	}

	entry, err := s.store.AddMealEntry(ctx, userID, in.DayLogID, newEntry)
	if err != nil {
		return nil, err
	}
	return entryJSON(entry), nil
}

func (s *Server) toolEntriesListByDay(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		DayLogID string `json:"day_log_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireUUID("day_log_id", in.DayLogID); err != nil {
		return nil, err
	}

	entries, err := s.store.ListMealEntriesByDay(ctx, userID, in.DayLogID)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(entries))
	for i, entry := range entries {
		out[i] = entryJSON(entry)
	}
	return out, nil
}

func (s *Server) toolEntriesUpdate(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	// Decoded as a raw field map first: an explicit JSON null on the nullable
	// fields means "clear", which a plain struct decode cannot distinguish
	// from an omitted field.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args, &fields); err != nil {
		return nil, argError("invalid arguments: %v", err)
	}

	var id string
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, argError("id must be a string")
		}
	}
	if err := requireUUID("id", id); err != nil {
		return nil, err
	}

	var updates store.MealEntryUpdate
	for field, raw := range fields {
		isNull := string(raw) == "null"
		switch field {
		case "id":
		case "name":
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, argError("name must be a string")
			}
			updates.Name = &v
		case "protein_g", "carbs_g", "fat_g":
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, argError("%s must be a number", field)
			}
			if err := requireNonNegative(field, v); err != nil {
				return nil, err
			}
			switch field {
			case "protein_g":
				updates.ProteinG = &v
			case "carbs_g":
				updates.CarbsG = &v
			case "fat_g":
				updates.FatG = &v
			}
		case "calories_override":
			if isNull {
				updates.ClearCaloriesOverride = true
				continue
			}
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, argError("calories_override must be a number or null")
			}
			updates.CaloriesOverride = &v
		case "meal_id":
			if isNull {
				updates.ClearMealID = true
				continue
			}
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, argError("meal_id must be a string or null")
			}
			if err := requireUUID("meal_id", v); err != nil {
				return nil, err
			}
			updates.MealID = &v
		default:
			return nil, argError("unknown field %q", field)
		}
	}

	if err := s.store.UpdateMealEntry(ctx, userID, id, updates); err != nil {
		return nil, err
	}
	return map[string]any{"updated": true}, nil
}

func (s *Server) toolEntriesDelete(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireUUID("id", in.ID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteMealEntry(ctx, userID, in.ID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true}, nil
}

func (s *Server) toolEntriesBulkAdd(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		DayLogID string       `json:"day_log_id"`
		Entries  []entryInput `json:"entries"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if err := requireUUID("day_log_id", in.DayLogID); err != nil {
		return nil, err
	}
	if len(in.Entries) == 0 {
		return nil, argError("entries must not be empty")
	}

	items := make([]store.NewMealEntry, len(in.Entries))
	for i := range in.Entries {
		item, err := in.Entries[i].validate()
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	entries, err := s.store.BulkAddMealEntries(ctx, userID, in.DayLogID, items)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(entries))
	for i, entry := range entries {
		out[i] = entryJSON(entry)
	}
	return out, nil
}

func (s *Server) toolEntriesBulkDelete(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	var in struct {
		IDs []string `json:"ids"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.IDs) == 0 {
		return nil, argError("ids must not be empty")
	}
	for _, id := range in.IDs {
		if err := requireUUID("ids", id); err != nil {
			return nil, err
		}
	}

	count, err := s.store.BulkDeleteMealEntries(ctx, userID, in.IDs)
	if err != nil {
		return nil, err
	}
	return map[string]any{"deleted": count}, nil
}

// JSON shapes

func weightJSON(entry *store.WeightEntry) map[string]any {
	return map[string]any{
		"id":         entry.ID,
		"entry_date": entry.EntryDate,
		"weight_kg":  entry.WeightKG,
		"source":     entry.Source,
		"created_at": entry.CreatedAt,
		"updated_at": entry.UpdatedAt,
	}
}

func entryJSON(entry *store.MealEntry) map[string]any {
	return map[string]any{
		"id":                entry.ID,
		"day_log_id":        entry.DayLogID,
		"meal_id":           entry.MealID,
		"name":              entry.Name,
		"protein_g":         entry.ProteinG,
		"carbs_g":           entry.CarbsG,
		"fat_g":             entry.FatG,
		"calories_override": entry.CaloriesOverride,
		"total_calories":    entry.TotalCalories,
		"order_index":       entry.OrderIndex,
	}
}
