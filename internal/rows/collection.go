package rows

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/conorfennell/deckpack/internal/domain"
	"github.com/conorfennell/deckpack/internal/notetype"
)

// DefaultDeckID is the deck every collection carries.
const DefaultDeckID = 1

const (
	latexPre = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n" +
		"\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"
	latexPost = "\\end{document}"
)

type collectionConf struct {
	ActiveDecks   []int64 `json:"activeDecks"`
	CurDeck       int64   `json:"curDeck"`
	NewSpread     int     `json:"newSpread"`
	CollapseTime  int     `json:"collapseTime"`
	TimeLim       int     `json:"timeLim"`
	EstTimes      bool    `json:"estTimes"`
	DueCounts     bool    `json:"dueCounts"`
	CurModel      string  `json:"curModel"`
	NextPos       int     `json:"nextPos"`
	SortType      string  `json:"sortType"`
	SortBackwards bool    `json:"sortBackwards"`
	AddToCur      bool    `json:"addToCur"`
}

type modelEntry struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      int             `json:"type"`
	Mod       int64           `json:"mod"`
	USN       int             `json:"usn"`
	SortF     int             `json:"sortf"`
	Did       int64           `json:"did"`
	Tmpls     json.RawMessage `json:"tmpls"`
	Flds      json.RawMessage `json:"flds"`
	CSS       string          `json:"css"`
	LatexPre  string          `json:"latexPre"`
	LatexPost string          `json:"latexPost"`
	Tags      []string        `json:"tags"`
	Vers      []int           `json:"vers"`
	Req       [][]any         `json:"req"`
}

type deckEntry struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Desc             string `json:"desc"`
	Mod              int64  `json:"mod"`
	USN              int    `json:"usn"`
	Collapsed        bool   `json:"collapsed"`
	BrowserCollapsed bool   `json:"browserCollapsed"`
	Dyn              int    `json:"dyn"`
	Conf             int64  `json:"conf"`
	ExtendNew        int    `json:"extendNew"`
	ExtendRev        int    `json:"extendRev"`
	NewToday         [2]int `json:"newToday"`
	RevToday         [2]int `json:"revToday"`
	LrnToday         [2]int `json:"lrnToday"`
	TimeToday        [2]int `json:"timeToday"`
}

type deckOptions struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Mod      int64        `json:"mod"`
	USN      int          `json:"usn"`
	MaxTaken int          `json:"maxTaken"`
	Autoplay bool         `json:"autoplay"`
	Timer    int          `json:"timer"`
	Replayq  bool         `json:"replayq"`
	Dyn      bool         `json:"dyn"`
	New      newOptions   `json:"new"`
	Rev      revOptions   `json:"rev"`
	Lapse    lapseOptions `json:"lapse"`
}

type newOptions struct {
	Delays        []float64 `json:"delays"`
	Ints          [3]int    `json:"ints"`
	InitialFactor int       `json:"initialFactor"`
	Order         int       `json:"order"`
	PerDay        int       `json:"perDay"`
	Bury          bool      `json:"bury"`
	Separate      bool      `json:"separate"`
}

type revOptions struct {
	PerDay   int     `json:"perDay"`
	Ease4    float64 `json:"ease4"`
	Fuzz     float64 `json:"fuzz"`
	IvlFct   float64 `json:"ivlFct"`
	MaxIvl   int     `json:"maxIvl"`
	Bury     bool    `json:"bury"`
	MinSpace int     `json:"minSpace"`
}

type lapseOptions struct {
	Delays      []float64 `json:"delays"`
	Mult        float64   `json:"mult"`
	MinInt      int       `json:"minInt"`
	LeechFails  int       `json:"leechFails"`
	LeechAction int       `json:"leechAction"`
}

func defaultDeckOptions() deckOptions {
	return deckOptions{
		ID:       1,
		Name:     "Default",
		MaxTaken: 60,
		Autoplay: true,
		Replayq:  true,
		New: newOptions{
			Delays:        []float64{1, 10},
			Ints:          [3]int{1, 4, 7},
			InitialFactor: 2500,
			Order:         1,
			PerDay:        20,
			Bury:          true,
			Separate:      true,
		},
		Rev: revOptions{
			PerDay:   200,
			Ease4:    1.3,
			Fuzz:     0.05,
			IvlFct:   1,
			MaxIvl:   36500,
			Bury:     true,
			MinSpace: 1,
		},
		Lapse: lapseOptions{
			Delays:     []float64{10},
			MinInt:     1,
			LeechFails: 8,
		},
	}
}

func newDeck(id int64, name string, mod int64) deckEntry {
	return deckEntry{
		ID:        id,
		Name:      name,
		Mod:       mod,
		Conf:      1,
		ExtendNew: 10,
		ExtendRev: 50,
	}
}

// BuildCollectionRow renders the singleton col row for a package holding one
// note type and one deck.
func (b *Builder) BuildCollectionRow(model *notetype.Model, deckID int64) (domain.CollectionRow, error) {
	now := b.clock.Now()
	mod := now.Unix()

	conf, err := json.Marshal(collectionConf{
		ActiveDecks:  []int64{deckID},
		CurDeck:      deckID,
		CollapseTime: 1200,
		EstTimes:     true,
		DueCounts:    true,
		CurModel:     strconv.FormatInt(model.ID, 10),
		NextPos:      1,
		SortType:     "noteFld",
		AddToCur:     true,
	})
	if err != nil {
		return domain.CollectionRow{}, fmt.Errorf("failed to encode collection config: %w", err)
	}

	flds, err := model.FieldsJSON()
	if err != nil {
		return domain.CollectionRow{}, fmt.Errorf("failed to encode fields: %w", err)
	}
	tmpls, err := model.TemplatesJSON()
	if err != nil {
		return domain.CollectionRow{}, fmt.Errorf("failed to encode templates: %w", err)
	}
	models, err := json.Marshal(map[string]modelEntry{
		strconv.FormatInt(model.ID, 10): {
			ID:        model.ID,
			Name:      model.Name,
			Mod:       mod,
			USN:       pendingUSN,
			Did:       deckID,
			Tmpls:     tmpls,
			Flds:      flds,
			CSS:       model.CSS,
			LatexPre:  latexPre,
			LatexPost: latexPost,
			Tags:      []string{},
			Vers:      []int{},
			Req:       model.Requirements(),
		},
	})
	if err != nil {
		return domain.CollectionRow{}, fmt.Errorf("failed to encode models: %w", err)
	}

	decks, err := json.Marshal(map[string]deckEntry{
		strconv.Itoa(DefaultDeckID):   newDeck(DefaultDeckID, "Default", 0),
		strconv.FormatInt(deckID, 10): newDeck(deckID, model.Name, mod),
	})
	if err != nil {
		return domain.CollectionRow{}, fmt.Errorf("failed to encode decks: %w", err)
	}

	dconf, err := json.Marshal(map[string]deckOptions{"1": defaultDeckOptions()})
	if err != nil {
		return domain.CollectionRow{}, fmt.Errorf("failed to encode deck options: %w", err)
	}

	return domain.CollectionRow{
		ID:             1,
		Created:        DayStart(now),
		Modified:       now.UnixMilli(),
		SchemaModified: now.UnixMilli(),
		Version:        schemaVersion,
		Conf:           string(conf),
		Models:         string(models),
		Decks:          string(decks),
		DeckConf:       string(dconf),
		Tags:           "{}",
	}, nil
}
