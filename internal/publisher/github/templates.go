package github

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
	"unicode"
)

//go:embed templates/license.txt
var licenseText string

//go:embed templates/readme.md.tmpl
var readmeText string

var readmeTmpl = template.Must(template.New("readme").Parse(readmeText))

func mitLicense() string { return licenseText }

func comprehensiveReadme(brief, task, email, fullName string) string {
	data := struct {
		Title    string
		Brief    string
		Task     string
		Email    string
		RepoName string
	}{
		Title:    titleCase(strings.ReplaceAll(task, "-", " ")),
		Brief:    brief,
		Task:     task,
		Email:    email,
		RepoName: fullName,
	}
	var buf bytes.Buffer
	_ = readmeTmpl.Execute(&buf, data)
	return buf.String()
}

// titleCase upper-cases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
