package output

import "github.com/RyanBlaney/bode-analyzer/internal/bode"

// BinsFromBode converts a Bode view into table rows.
func BinsFromBode(b *bode.Bode) []BinRow {
	if b == nil {
		return nil
	}

	rows := make([]BinRow, len(b.Grid))
	for i, f := range b.Grid {
		rows[i].FrequencyHz = f
		if !b.Valid[i] {
			continue
		}
		mag, phase := b.MagnitudeDB[i], b.Phase[i]
		rows[i].MagnitudeDB = &mag
		rows[i].PhaseRad = &phase
	}
	return rows
}
