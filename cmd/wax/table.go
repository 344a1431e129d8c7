package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"wax/internal/sessionindex"
)

type column struct {
	title string
	align text.Align
}

var sessionColumns = []column{
	{"ID", text.AlignLeft},
	{"Started", text.AlignLeft},
	{"Duration", text.AlignRight},
	{"Recorders", text.AlignLeft},
	{"Phrases", text.AlignRight},
	{"Status", text.AlignLeft},
}

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		header = append(header, col.title)
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: col.align, AlignHeader: text.AlignLeft})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

func renderSessionTable(entries []sessionindex.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		status := string(entry.Status)
		if entry.Error != "" {
			status += ": " + entry.Error
		}
		rows = append(rows, []string{
			entry.ID,
			entry.StartedAt.Local().Format("2006-01-02 15:04:05"),
			sessionDuration(entry),
			strings.Join(entry.Recorders, ", "),
			strconv.Itoa(entry.Phrases),
			status,
		})
	}
	return renderTable(sessionColumns, rows)
}

func sessionDuration(entry sessionindex.Entry) string {
	if entry.StoppedAt.IsZero() || entry.StartedAt.IsZero() {
		return "-"
	}
	return entry.StoppedAt.Sub(entry.StartedAt).Round(time.Second).String()
}
