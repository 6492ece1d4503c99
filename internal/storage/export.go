package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/polarsim/internal/metrics"
)

type ExportData struct {
	RunMetadata
	Times       []float64    `json:"times"`
	Kinetic     []float64    `json:"kinetic"`
	Momentum    [][3]float64 `json:"momentum"`
	MaxSpeed    []float64    `json:"max_speed"`
	Penetration []float64    `json:"penetration"`
}

func NewExportData(meta RunMetadata, rows []metrics.Row) ExportData {
	data := ExportData{
		RunMetadata: meta,
		Times:       make([]float64, len(rows)),
		Kinetic:     make([]float64, len(rows)),
		Momentum:    make([][3]float64, len(rows)),
		MaxSpeed:    make([]float64, len(rows)),
		Penetration: make([]float64, len(rows)),
	}
	for i, r := range rows {
		data.Times[i] = r.Time
		data.Kinetic[i] = r.Kinetic
		data.Momentum[i] = [3]float64(r.Momentum)
		data.MaxSpeed[i] = r.MaxSpeed
		data.Penetration[i] = r.Penetration
	}
	return data
}

func WriteJSON(w io.Writer, meta RunMetadata, rows []metrics.Row) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, rows))
}

func ExportJSON(path string, meta RunMetadata, rows []metrics.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, meta, rows)
}
