package events

import (
	"fmt"
	"strings"
	"unicode"
)

// Field names reported in validation errors
const (
	FieldTitle       = "title"
	FieldOrganizer   = "organizer"
	FieldStartDate   = "startDate"
	FieldEndDate     = "endDate"
	FieldTime        = "time"
	FieldMonth       = "month"
	FieldLocation    = "location"
	FieldAddress     = "address"
	FieldMapURL      = "mapUrl"
	FieldDescription = "description"
)

// requiredFields are checked in this order
var requiredFields = []string{
	FieldTitle,
	FieldOrganizer,
	FieldStartDate,
	FieldEndDate,
	FieldTime,
	FieldMonth,
	FieldLocation,
	FieldAddress,
	FieldMapURL,
	FieldDescription,
}

// Line labels of the bulk import format
const (
	labelTitle            = "[title]"
	labelOrganizer        = "Organizzatore"
	labelStartDate        = "Data Inizio"
	labelEndDate          = "Data Fine"
	labelTime             = "Orario"
	labelMonth            = "Mese"
	labelCategory         = "Categoria"
	labelLocation         = "Località"
	labelAddress          = "Indirizzo"
	labelMapURL           = "URL Google Maps"
	labelTags             = "Tags"
	labelCost             = "Costo"
	labelFood             = "Cibo"
	labelMusic            = "Musica"
	labelFreeEntry        = "Ingresso Libero"
	labelTicketTasting    = "Ticket Degustazione"
	labelFireworks        = "Fuochi d'Artificio"
	labelDescription      = "Descrizione"
	labelDescriptionStart = labelDescription + ":"
)

// knownLabels are matched as "<label>:" prefixes
var knownLabels = []string{
	labelOrganizer,
	labelStartDate,
	labelEndDate,
	labelTime,
	labelMonth,
	labelCategory,
	labelLocation,
	labelAddress,
	labelMapURL,
	labelTags,
	labelCost,
	labelFood,
	labelMusic,
	labelFreeEntry,
	labelTicketTasting,
	labelFireworks,
}

// yes is the only truthy value of a yes/no line
const yes = "sì"

// BlockError reports the first block of an import that failed validation
type BlockError struct {
	// Index is the 1-based position of the block in the import text
	Index   int
	Missing []string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("Errore nell'evento %d: campi mancanti: %s", e.Index, strings.Join(e.Missing, ", "))
}

// pair is a classified line of a block
type pair struct {
	label string
	value string
}

// ParseBulk parses a bulk import text into events.
//
// Blocks are separated by blank lines. The first block that misses a
// required field fails the whole import and no events are returned. An
// empty text yields no events and no error.
func ParseBulk(text string) ([]Event, error) {
	blocks := splitBlocks(text)
	out := make([]Event, 0, len(blocks))

	for i, block := range blocks {
		e, missing := assemble(classifyBlock(block))
		if len(missing) > 0 {
			return nil, &BlockError{Index: i + 1, Missing: missing}
		}
		e.ID = newImportedID()
		out = append(out, e)
	}

	return out, nil
}

// splitBlocks splits text on blank lines and drops empty blocks. A line
// holding only Unicode whitespace (NBSP and BOM included) is blank.
func splitBlocks(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var blocks []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if isBlank(line) {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return blocks
}

func isBlank(line string) bool {
	return strings.TrimFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\ufeff'
	}) == ""
}

// classifyBlock turns the lines of a block into label/value pairs.
// Everything after a "Descrizione:" line is a single description pair.
func classifyBlock(block string) []pair {
	lines := strings.Split(block, "\n")
	pairs := make([]pair, 0, len(lines))

	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, labelDescriptionStart) {
			parts := []string{}
			if inline := strings.TrimSpace(strings.TrimPrefix(line, labelDescriptionStart)); inline != "" {
				parts = append(parts, inline)
			}
			for _, rest := range lines[i+1:] {
				parts = append(parts, strings.TrimSpace(rest))
			}
			pairs = append(pairs, pair{label: labelDescription, value: strings.TrimSpace(strings.Join(parts, " "))})
			return pairs
		}

		if p, ok := classifyLine(line); ok {
			pairs = append(pairs, p)
		}
	}

	return pairs
}

func classifyLine(line string) (pair, bool) {
	if strings.HasPrefix(line, "[") && strings.Contains(line, "]") {
		title := strings.TrimPrefix(line, "[")
		title = strings.TrimSuffix(title, "]")
		return pair{label: labelTitle, value: title}, true
	}

	for _, label := range knownLabels {
		prefix := label + ":"
		if strings.HasPrefix(line, prefix) {
			return pair{label: label, value: strings.TrimSpace(strings.TrimPrefix(line, prefix))}, true
		}
	}

	return pair{}, false
}

// assemble builds an event from classified pairs and applies defaults.
// It returns the names of missing required fields.
func assemble(pairs []pair) (Event, []string) {
	var e Event
	var tags []string
	var freeEntry *bool

	for _, p := range pairs {
		switch p.label {
		case labelTitle:
			e.Title = p.value
		case labelOrganizer:
			e.Organizer = p.value
		case labelStartDate:
			e.StartDate = ConvertDate(p.value)
		case labelEndDate:
			e.EndDate = ConvertDate(p.value)
		case labelTime:
			e.Time = p.value
		case labelMonth:
			e.Month = strings.ToLower(p.value)
		case labelCategory:
			e.Category = mapCategory(p.value)
		case labelLocation:
			e.Location = p.value
		case labelAddress:
			e.Address = p.value
		case labelMapURL:
			e.MapURL = p.value
		case labelTags:
			tags = SplitTags(p.value)
		case labelCost:
			e.Cost = p.value
		case labelFood:
			e.HasFood = isYes(p.value)
		case labelMusic:
			e.HasMusic = isYes(p.value)
		case labelFreeEntry:
			v := isYes(p.value)
			freeEntry = &v
		case labelTicketTasting:
			e.HasTicketTasting = isYes(p.value)
		case labelFireworks:
			e.HasFireworks = isYes(p.value)
		case labelDescription:
			e.Description = p.value
		}
	}

	if missing := missingFields(e); len(missing) > 0 {
		return Event{}, missing
	}

	if e.Cost == "" {
		e.Cost = DefaultCost
	}
	if tags == nil {
		tags = []string{}
	}
	e.Tags = tags
	e.Featured = false
	e.HasFreeEntry = freeEntry == nil || *freeEntry

	return e, nil
}

func missingFields(e Event) []string {
	values := map[string]string{
		FieldTitle:       e.Title,
		FieldOrganizer:   e.Organizer,
		FieldStartDate:   e.StartDate,
		FieldEndDate:     e.EndDate,
		FieldTime:        e.Time,
		FieldMonth:       e.Month,
		FieldLocation:    e.Location,
		FieldAddress:     e.Address,
		FieldMapURL:      e.MapURL,
		FieldDescription: e.Description,
	}

	var missing []string
	for _, f := range requiredFields {
		if values[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

func mapCategory(s string) string {
	switch {
	case strings.Contains(s, "Penisola Sorrentina"):
		return CategoryPenisola
	case strings.Contains(s, "Costiera Amalfitana"):
		return CategoryCostiera
	default:
		return CategoryOltre
	}
}

func isYes(s string) bool {
	return strings.ToLower(strings.TrimSpace(s)) == yes
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
