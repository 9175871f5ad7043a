// Package persist defines the saved form of a game and the gateway that
// stores it. Decode is the single validation point shared by load and import.
package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vovakirdan/signal-archive/internal/archive"
	"github.com/vovakirdan/signal-archive/internal/decoder"
	"github.com/vovakirdan/signal-archive/internal/progression"
	"github.com/vovakirdan/signal-archive/internal/registry"
	"github.com/vovakirdan/signal-archive/internal/symbols"
)

// SymbolState is the saved form of a catalog entry.
type SymbolState struct {
	ID       symbols.ID `json:"id"`
	Char     string     `json:"char,omitempty"`
	Color    string     `json:"color,omitempty"`
	Unlocked bool       `json:"unlocked"`
}

// Snapshot is the persisted aggregate. The grid is not part of it; a fresh
// board is drawn on load.
type Snapshot struct {
	Stats     progression.Stats           `json:"stats"`
	Documents []archive.Document          `json:"documents"`
	Folders   map[archive.Folder][]string `json:"folders"`
	Decoders  []decoder.Decoder           `json:"decoders"`
	Symbols   []SymbolState               `json:"symbols,omitempty"`
	UIState   progression.UIState         `json:"uiState"`
}

// SymbolStates converts catalog symbols to their saved form.
func SymbolStates(syms []symbols.Symbol) []SymbolState {
	out := make([]SymbolState, 0, len(syms))
	for _, s := range syms {
		out = append(out, SymbolState{
			ID:       s.ID,
			Char:     string(s.Glyph),
			Color:    s.Color.String(),
			Unlocked: s.Unlocked,
		})
	}
	return out
}

// CatalogSymbols converts saved symbols back to catalog entries suitable for
// symbols.Catalog.Merge.
func CatalogSymbols(saved []SymbolState) []symbols.Symbol {
	out := make([]symbols.Symbol, 0, len(saved))
	for _, s := range saved {
		out = append(out, symbols.Symbol{ID: s.ID, Unlocked: s.Unlocked})
	}
	return out
}

// Encode serializes a snapshot as indented JSON.
func Encode(s Snapshot) ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("persist: encode: %w", err)
	}
	return b, nil
}

// Decode parses and validates a snapshot. stats must be an object and
// decoders an array; anything else yields a *MalformedSaveError. Optional
// sections fall back to defaults: no documents, folders rebuilt from the
// documents, catalog default symbols and a zero UIState.
func Decode(data []byte) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, malformed("", "not a JSON object", err)
	}

	var s Snapshot

	stats, ok := raw["stats"]
	if !ok || !isKind(stats, '{') {
		return Snapshot{}, malformed("stats", "missing or not an object", nil)
	}
	stats, err := millisToTime(stats, "sessionStart", "lastSave")
	if err != nil {
		return Snapshot{}, malformed("stats", "invalid timestamp", err)
	}
	if err := json.Unmarshal(stats, &s.Stats); err != nil {
		return Snapshot{}, malformed("stats", "invalid", err)
	}
	if s.Stats.TotalMatches < 0 || s.Stats.TotalDocuments < 0 || s.Stats.Fragments < 0 {
		return Snapshot{}, malformed("stats", "negative counter", nil)
	}

	decs, ok := raw["decoders"]
	if !ok || !isKind(decs, '[') {
		return Snapshot{}, malformed("decoders", "missing or not an array", nil)
	}
	if err := json.Unmarshal(decs, &s.Decoders); err != nil {
		return Snapshot{}, malformed("decoders", "invalid", err)
	}
	for i, d := range s.Decoders {
		if d.ID == "" {
			return Snapshot{}, malformed("decoders", fmt.Sprintf("entry %d has no id", i), nil)
		}
	}

	if docs, ok := raw["documents"]; ok && !isNull(docs) {
		if err := json.Unmarshal(docs, &s.Documents); err != nil {
			return Snapshot{}, malformed("documents", "invalid", err)
		}
		for i := range s.Documents {
			d := &s.Documents[i]
			if d.ID == "" {
				return Snapshot{}, malformed("documents", fmt.Sprintf("entry %d has no id", i), nil)
			}
			if d.Seq == 0 {
				d.Seq = seqFromID(d.ID)
			}
			if d.Name == "" {
				d.Name = d.ID + ".txt"
			}
			if d.Type == "" {
				d.Type = registry.Transmission
			}
		}
	}

	if folders, ok := raw["folders"]; ok && !isNull(folders) {
		f, err := decodeFolders(folders)
		if err != nil {
			return Snapshot{}, malformed("folders", "invalid", err)
		}
		s.Folders = f
	}

	if syms, ok := raw["symbols"]; ok && !isNull(syms) {
		if err := json.Unmarshal(syms, &s.Symbols); err != nil {
			return Snapshot{}, malformed("symbols", "invalid", err)
		}
	}

	if ui, ok := raw["uiState"]; ok && !isNull(ui) {
		if err := json.Unmarshal(ui, &s.UIState); err != nil {
			return Snapshot{}, malformed("uiState", "invalid", err)
		}
		s.UIState = progression.UIState{}.Merge(s.UIState)
	}

	// Dry-run the folder assignment so a bad save never reaches the game.
	probe := archive.New(registry.New(), nil, nil)
	if err := probe.Restore(s.Documents, s.Folders); err != nil {
		return Snapshot{}, malformed("folders", "inconsistent with documents", err)
	}
	if s.Folders == nil {
		s.Folders = probe.FolderIDs()
	}

	return s, nil
}

// decodeFolders accepts buckets listing document IDs or whole document
// objects carrying an "id" field.
func decodeFolders(data json.RawMessage) (map[archive.Folder][]string, error) {
	var buckets map[archive.Folder][]json.RawMessage
	if err := json.Unmarshal(data, &buckets); err != nil {
		return nil, err
	}
	out := make(map[archive.Folder][]string, len(buckets))
	for f, entries := range buckets {
		ids := make([]string, 0, len(entries))
		for _, e := range entries {
			var id string
			if err := json.Unmarshal(e, &id); err == nil {
				ids = append(ids, id)
				continue
			}
			var ref struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(e, &ref); err != nil || ref.ID == "" {
				return nil, fmt.Errorf("folder %s: entry is neither an id nor a document", f)
			}
			ids = append(ids, ref.ID)
		}
		out[f] = ids
	}
	return out, nil
}

// millisToTime rewrites the named fields from epoch milliseconds to RFC 3339
// strings. Fields already holding strings are left alone.
func millisToTime(obj json.RawMessage, fields ...string) (json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(obj, &m); err != nil {
		return nil, err
	}
	changed := false
	for _, f := range fields {
		v, ok := m[f]
		if !ok || isKind(v, '"') || isNull(v) {
			continue
		}
		var ms float64
		if err := json.Unmarshal(v, &ms); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		b, err := json.Marshal(time.UnixMilli(int64(ms)).UTC())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		m[f] = b
		changed = true
	}
	if !changed {
		return obj, nil
	}
	return json.Marshal(m)
}

func seqFromID(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "doc_"))
	if err != nil {
		return 0
	}
	return n
}

func isKind(b json.RawMessage, open byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == open
}

func isNull(b json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// IdleMinutes returns the whole minutes between the last save and now.
// A zero last save or a clock that moved backwards yields zero.
func IdleMinutes(lastSave, now time.Time) int {
	if lastSave.IsZero() || !now.After(lastSave) {
		return 0
	}
	return int(now.Sub(lastSave) / time.Minute)
}
