package summary

const builtinTemplates = `{{define "requirements-changes"}}# {{.Title}}
{{if .Description}}
{{.Description}}
{{end}}
## 📋 Planned changes

The following {{if eq .FileCount 1}}1 file has{{else}}{{.FileCount}} files have{{end}} changes:
{{range .Groups}}
### {{.Dir}}/
{{range .Files}}- ` + "`{{.}}`" + `
{{end}}{{end}}
---

*Generated from the changed files.*
{{end}}

{{define "requirements-commits"}}# Branch: {{.Branch}}

## 📋 Planned changes
{{range $i, $c := .Commits}}
### {{inc $i}}. {{strip $c.Subject}}
{{if $c.Body}}
{{$c.Body}}
{{end}}
---
{{end}}{{end}}

{{define "merge-request"}}{{with .Issue}}# 📋 Issue Summary

**Issue**: #{{.IID}} - {{.Title}}
**Status**: {{if .State}}{{.State}}{{else}}N/A{{end}}
**Labels**: {{if .Labels}}{{join .Labels ", "}}{{else}}None{{end}}
**URL**: {{.WebURL}}
{{if .Description}}
## 📝 Requirements

{{.Description}}
{{end}}
## ✅ Implementation
{{if $.Commits}}
### Key changes:

{{range $i, $c := $.Commits}}{{inc $i}}. {{strip $c.Subject}}
{{end}}{{end}}
{{end}}## 📊 Changes Summary

- **Files changed**: {{.Stat.Files}}
- **Insertions**: +{{.Stat.Insertions}}
- **Deletions**: -{{.Stat.Deletions}}
- **Total commits**: {{len .Commits}}
{{if .Commits}}
## 📜 Detailed Commit History
{{range $i, $c := .Commits}}
### {{inc $i}}. {{$c.Subject}}
- **Commit**: ` + "`{{$c.ShortHash}}`" + `
- **Author**: {{$c.Author}}
- **Date**: {{$c.Date}}
{{if $c.Body}}
{{$c.Body}}
{{end}}
---
{{end}}{{end}}{{end}}
`
