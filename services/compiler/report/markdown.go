// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package report renders a run record into a human-readable briefing.
// Rendering is a pure projection: same record, same bytes.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
)

// RenderMarkdown renders rec as a Markdown briefing for an executive reader.
// Signals are ordered most severe first; within one severity the record
// order is preserved.
func RenderMarkdown(rec *datatypes.RunRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Signal Report: %s\n\n", rec.RunMeta.PackID)
	fmt.Fprintf(&b, "- Run: `%s`\n", rec.RunMeta.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", rec.RunMeta.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Model: %s\n", rec.RunMeta.Model)
	fmt.Fprintf(&b, "- Config: `%s`\n\n", rec.RunMeta.ConfigHash)

	writeSummary(&b, rec)
	writeInputs(&b, rec.Inputs)
	writeSignals(&b, rec.Signals)
	writeConflicts(&b, rec.Conflicts)
	writeDrops(&b, rec.Drops)
	writeNextChecks(&b, rec.NextChecks)

	return b.String()
}

func writeSummary(b *strings.Builder, rec *datatypes.RunRecord) {
	b.WriteString("## Summary\n\n")

	bySeverity := map[datatypes.Severity]int{}
	byType := map[datatypes.SignalType]int{}
	for _, s := range rec.Signals {
		bySeverity[s.Severity]++
		byType[s.Type]++
	}
	b.WriteString("| Severity | Count |\n|---|---|\n")
	for _, sev := range datatypes.Severities() {
		fmt.Fprintf(b, "| %s | %d |\n", capitalize(string(sev)), bySeverity[sev])
	}
	// Category rows only for types that actually occurred; an all-zero
	// seven-row table tells the reader nothing.
	if len(rec.Signals) > 0 {
		b.WriteString("\n| Category | Count |\n|---|---|\n")
		for _, st := range datatypes.SignalTypes() {
			if byType[st] == 0 {
				continue
			}
			fmt.Fprintf(b, "| %s | %d |\n", capitalize(string(st)), byType[st])
		}
	}
	fmt.Fprintf(b, "\n%d signal(s), %d conflict(s), %d dropped claim(s), %d follow-up check(s).\n\n",
		len(rec.Signals), len(rec.Conflicts), len(rec.Drops), len(rec.NextChecks))
}

func writeInputs(b *strings.Builder, inputs []datatypes.DocumentInput) {
	b.WriteString("## Inputs\n\n")
	if len(inputs) == 0 {
		b.WriteString("_No inputs recorded._\n\n")
		return
	}
	b.WriteString("| Doc | Filename | Type | SHA-256 |\n|---|---|---|---|\n")
	for _, in := range inputs {
		fmt.Fprintf(b, "| %s | %s | %s | `%s` |\n", in.DocID, in.Filename, in.Type, shortHash(in.SHA256))
	}
	b.WriteString("\n")
}

func writeSignals(b *strings.Builder, signals []datatypes.Finding) {
	b.WriteString("## Signals\n\n")
	if len(signals) == 0 {
		b.WriteString("_No verified signals._\n\n")
		return
	}

	ordered := make([]datatypes.Finding, len(signals))
	copy(ordered, signals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Severity.Rank() < ordered[j].Severity.Rank()
	})

	for _, s := range ordered {
		fmt.Fprintf(b, "### [%s] %s (%s)\n\n", strings.ToUpper(string(s.Severity)), s.Summary, s.ID)
		fmt.Fprintf(b, "- Type: %s\n", s.Type)
		if s.Value != "" {
			fmt.Fprintf(b, "- Value: %s %s\n", s.Value, s.Unit)
		}
		if s.Owner != "" {
			fmt.Fprintf(b, "- Owner: %s\n", s.Owner)
		}
		if s.SeverityReason != "" {
			fmt.Fprintf(b, "- Why this severity: %s\n", s.SeverityReason)
		}
		if len(s.BlockerFor) > 0 {
			fmt.Fprintf(b, "- Blocks: %s\n", strings.Join(s.BlockerFor, ", "))
		}
		b.WriteString("\nEvidence:\n\n")
		for _, ev := range s.Evidence {
			fmt.Fprintf(b, "> %s\n>\n> — %s%s\n\n", ev.Quote, ev.Source, pageRef(ev.Page))
		}
	}
}

func writeConflicts(b *strings.Builder, conflicts []datatypes.Conflict) {
	b.WriteString("## Conflicts\n\n")
	if len(conflicts) == 0 {
		b.WriteString("_No conflicts between sources._\n\n")
		return
	}
	for _, c := range conflicts {
		fmt.Fprintf(b, "### %s (%s, %s)\n\n", c.Topic, c.ID, c.Type)
		b.WriteString("| Source | Value | Definition | Value date |\n|---|---|---|---|\n")
		for _, cl := range c.Claims {
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
				cl.Source, cl.Value, orDash(cl.Definition), orDash(cl.ValueDate))
		}
		if len(c.Flags) > 0 {
			flags := make([]string, len(c.Flags))
			for i, f := range c.Flags {
				flags[i] = string(f)
			}
			fmt.Fprintf(b, "\nFlags: %s\n", strings.Join(flags, ", "))
		}
		if c.HowToResolve != "" {
			fmt.Fprintf(b, "\nHow to resolve: %s\n", c.HowToResolve)
		}
		b.WriteString("\n")
	}
}

func writeDrops(b *strings.Builder, drops []datatypes.Drop) {
	b.WriteString("## Dropped Claims\n\n")
	if len(drops) == 0 {
		b.WriteString("_Nothing was dropped._\n\n")
		return
	}
	b.WriteString("| ID | What | Reason | Would fix |\n|---|---|---|---|\n")
	for _, d := range drops {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", d.ID, d.What, d.Reason, orDash(d.WouldFix))
	}
	b.WriteString("\n")
}

func writeNextChecks(b *strings.Builder, checks []datatypes.NextCheck) {
	b.WriteString("## Next Checks\n\n")
	if len(checks) == 0 {
		b.WriteString("_No follow-up checks._\n")
		return
	}

	ordered := make([]datatypes.NextCheck, len(checks))
	copy(ordered, checks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	for _, nc := range ordered {
		question := nc.Question
		if question == "" {
			if tpl, ok := datatypes.LookupTemplate(nc.Template); ok {
				question = datatypes.RenderQuestion(tpl, nc.Slots)
			}
		}
		fmt.Fprintf(b, "%d. **%s**", nc.Priority, question)
		if nc.Owner != "" {
			fmt.Fprintf(b, " (owner: %s)", nc.Owner)
		}
		b.WriteString("\n")
		if nc.DoneWhen != "" {
			fmt.Fprintf(b, "   Done when: %s\n", nc.DoneWhen)
		}
	}
}

func pageRef(page *int) string {
	if page == nil {
		return ""
	}
	return fmt.Sprintf(", p. %d", *page)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
