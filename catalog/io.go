package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ImportResult reports the outcome of ImportCSV: each invalid row is
// skipped and its reason recorded, while valid rows are committed
// independently (spec.md §4.1 failure semantics).
type ImportResult struct {
	Imported int
	Skipped  []string
	Reasons  []string
}

// ImportCSV reads bookmark rows in the teacher's `;`-delimited, `#`
// comment CSV dialect (store.BandStore.ImportCSV), extended with an
// optional leading "band" marker and inline profile columns (SPEC_FULL.md
// §4.1 expansion):
//
//	<frequencyHz>;<name>;<mode>;<bandwidthHz>[;<scannable>[;<demodMode>;<bwHz>;<sqOn>;<sqDB>;<deemph>;<agc>;<gain>;<offset>]]
//	band;<name>;<startHz>;<endHz>;<stepHz>[;<tags,comma,separated>]
func (c *Catalog) ImportCSV(listName string, r io.Reader) (ImportResult, error) {
	csvr := csv.NewReader(r)
	csvr.Comma, csvr.Comment, csvr.FieldsPerRecord = ';', '#', -1
	records, err := csvr.ReadAll()
	if err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	for _, row := range records {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		if len(row) == 0 {
			continue
		}
		name, bm, err := parseRow(row)
		if err != nil {
			res.Skipped = append(res.Skipped, rowName(row))
			res.Reasons = append(res.Reasons, err.Error())
			continue
		}
		if err := c.AddBookmark(listName, name, bm); err != nil {
			res.Skipped = append(res.Skipped, name)
			res.Reasons = append(res.Reasons, err.Error())
			continue
		}
		res.Imported++
	}
	return res, nil
}

func rowName(row []string) string {
	if len(row) > 1 {
		return row[1]
	}
	return "<unknown>"
}

func parseRow(row []string) (string, Bookmark, error) {
	if len(row) < 2 {
		return "", Bookmark{}, fmt.Errorf("catalog: short row")
	}
	switch strings.ToLower(row[0]) {
	case "band":
		if len(row) < 5 {
			return "", Bookmark{}, fmt.Errorf("catalog: band row needs name;start;end;step")
		}
		name := row[1]
		start, err1 := strconv.ParseFloat(row[2], 64)
		end, err2 := strconv.ParseFloat(row[3], 64)
		step, err3 := strconv.ParseFloat(row[4], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return "", Bookmark{}, fmt.Errorf("catalog: malformed band bounds")
		}
		bm := Bookmark{Kind: KindBand, StartHz: start, EndHz: end, StepHz: step, Scannable: true}
		if len(row) > 5 && row[5] != "" {
			bm.Tags = strings.Split(row[5], ",")
		}
		return name, bm, nil
	default:
		// freq;name;mode;bandwidthHz[;scannable[;profile cols...]]
		if len(row) < 4 {
			return "", Bookmark{}, fmt.Errorf("catalog: frequency row needs freq;name;mode;bandwidth")
		}
		freq, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return "", Bookmark{}, fmt.Errorf("catalog: malformed frequency %q", row[0])
		}
		name := row[1]
		modeIdx, _ := strconv.Atoi(row[2])
		bw, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return "", Bookmark{}, fmt.Errorf("catalog: malformed bandwidth %q", row[3])
		}
		bm := Bookmark{
			Kind:        KindFrequency,
			FrequencyHz: freq,
			NominalBWHz: bw,
			NominalMode: DemodMode(modeIdx),
			Scannable:   true,
		}
		if len(row) > 4 && row[4] != "" {
			bm.Scannable = row[4] == "1" || strings.EqualFold(row[4], "true")
		}
		if len(row) >= 13 {
			p, err := parseProfileCols(row[5:13])
			if err != nil {
				return "", Bookmark{}, err
			}
			bm.Profile = &p
		}
		return name, bm, nil
	}
}

func parseProfileCols(cols []string) (TuningProfile, error) {
	var p TuningProfile
	mode, err := strconv.Atoi(cols[0])
	if err != nil {
		return p, fmt.Errorf("catalog: malformed profile demod mode")
	}
	bw, err := strconv.ParseFloat(cols[1], 64)
	if err != nil {
		return p, fmt.Errorf("catalog: malformed profile bandwidth")
	}
	sqDB, err := strconv.ParseFloat(cols[3], 64)
	if err != nil {
		return p, fmt.Errorf("catalog: malformed profile squelch level")
	}
	deemph, _ := strconv.Atoi(cols[4])
	gain, err := strconv.ParseFloat(cols[6], 64)
	if err != nil {
		return p, fmt.Errorf("catalog: malformed profile rf gain")
	}
	offset, _ := strconv.ParseFloat(cols[7], 64)
	p = TuningProfile{
		DemodMode:    DemodMode(mode),
		BandwidthHz:  bw,
		SquelchOn:    cols[2] == "1" || strings.EqualFold(cols[2], "true"),
		SquelchDB:    sqDB,
		Deemphasis:   Deemphasis(deemph),
		AGCOn:        cols[5] == "1" || strings.EqualFold(cols[5], "true"),
		RFGainDB:     gain,
		CenterOffsHz: offset,
		AutoApply:    true,
	}
	return p, nil
}

// ExportCSV renders the named bookmarks from listName in the same
// dialect ImportCSV accepts.
func (c *Catalog) ExportCSV(w io.Writer, listName string, names []string) error {
	csvw := csv.NewWriter(w)
	csvw.Comma = ';'
	for _, name := range names {
		bm, ok := c.GetBookmark(listName, name)
		if !ok {
			continue
		}
		row := bookmarkRow(name, bm)
		if err := csvw.Write(row); err != nil {
			return err
		}
	}
	csvw.Flush()
	return csvw.Error()
}

func bookmarkRow(name string, bm Bookmark) []string {
	scannable := "0"
	if bm.Scannable {
		scannable = "1"
	}
	if bm.Kind == KindBand {
		row := []string{"band", name,
			strconv.FormatFloat(bm.StartHz, 'f', -1, 64),
			strconv.FormatFloat(bm.EndHz, 'f', -1, 64),
			strconv.FormatFloat(bm.StepHz, 'f', -1, 64),
		}
		if len(bm.Tags) > 0 {
			row = append(row, strings.Join(bm.Tags, ","))
		}
		return row
	}
	row := []string{
		strconv.FormatFloat(bm.FrequencyHz, 'f', -1, 64),
		name,
		strconv.Itoa(int(bm.NominalMode)),
		strconv.FormatFloat(bm.NominalBWHz, 'f', -1, 64),
		scannable,
	}
	if bm.Profile != nil {
		p := bm.Profile
		onOff := func(b bool) string {
			if b {
				return "1"
			}
			return "0"
		}
		row = append(row,
			strconv.Itoa(int(p.DemodMode)),
			strconv.FormatFloat(p.BandwidthHz, 'f', -1, 64),
			onOff(p.SquelchOn),
			strconv.FormatFloat(p.SquelchDB, 'f', -1, 64),
			strconv.Itoa(int(p.Deemphasis)),
			onOff(p.AGCOn),
			strconv.FormatFloat(p.RFGainDB, 'f', -1, 64),
			strconv.FormatFloat(p.CenterOffsHz, 'f', -1, 64),
		)
	}
	return row
}
