package main

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/casimadrid/casi-cli/internal/ingest"
	"github.com/casimadrid/casi-cli/internal/refine"
)

type itemReport struct {
	Name   string `json:"name"`
	Slug   string `json:"slug,omitempty"`
	File   string `json:"file,omitempty"`
	Status string `json:"status"`
	Author string `json:"author,omitempty"`
	Error  string `json:"error,omitempty"`
}

type ingestReport struct {
	RunID   string       `json:"run_id"`
	Queries []string     `json:"queries"`
	Total   int          `json:"total"`
	New     int          `json:"new"`
	Skipped int          `json:"skipped"`
	Written int          `json:"written"`
	Failed  int          `json:"failed"`
	Retries int          `json:"retries"`
	Items   []itemReport `json:"items"`
}

type refineReport struct {
	RunID       string       `json:"run_id"`
	Single      bool         `json:"single"`
	Selected    int          `json:"selected"`
	Refined     int          `json:"refined"`
	Failed      int          `json:"failed"`
	Interrupted bool         `json:"interrupted,omitempty"`
	Items       []itemReport `json:"items"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func writeIngestReport(w io.Writer, res *ingest.Result) error {
	r := ingestReport{
		RunID:   res.RunID,
		Queries: res.Queries,
		Total:   res.Total,
		New:     res.New,
		Skipped: res.Skipped,
		Written: res.Written,
		Failed:  res.Failed,
		Retries: res.Retries,
		Items:   make([]itemReport, 0, len(res.Items)),
	}
	for _, it := range res.Items {
		r.Items = append(r.Items, itemReport{
			Name:   it.Name,
			Slug:   it.Slug,
			File:   it.Path,
			Status: string(it.Status),
			Error:  errString(it.Err),
		})
	}
	return encode(w, r)
}

func writeRefineReport(w io.Writer, res *refine.Result) error {
	r := refineReport{
		RunID:       res.RunID,
		Single:      res.Single,
		Selected:    res.Selected,
		Refined:     res.Refined,
		Failed:      res.Failed,
		Interrupted: res.Interrupted,
		Items:       make([]itemReport, 0, len(res.Items)),
	}
	for _, it := range res.Items {
		r.Items = append(r.Items, itemReport{
			Name:   it.SpotName,
			File:   it.Filename,
			Status: string(it.Status),
			Author: it.Author,
			Error:  errString(it.Err),
		})
	}
	return encode(w, r)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
