package aipipe

import (
	"fmt"
	"strings"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
)

const systemBuild = "You are an expert web developer. Generate complete, functional web applications based on requirements. Always return valid JSON with file contents."

const systemModify = "You are an expert web developer. Modify existing code based on requirements. Always return valid JSON with updated file contents."

func buildPrompt(req core.BuildRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Create a complete web application based on this brief: %s

Requirements:
1. Create a minimal, functional web application
2. Include HTML, CSS, and JavaScript as needed
3. Make it responsive and user-friendly
4. Include proper error handling
5. Add comments explaining the code

If there are attachments, analyze them and incorporate relevant functionality.

Return the code as a JSON object with file names as keys and file contents as values.
Include at least: index.html, style.css, script.js, and any necessary backend files.
`, req.Brief)

	if len(req.Checks) > 0 {
		b.WriteString("\nThe application must satisfy these checks:\n")
		for _, check := range req.Checks {
			fmt.Fprintf(&b, "- %s\n", check)
		}
	}

	if len(req.Attachments) > 0 {
		b.WriteString("\nAttachments to analyze:\n")
		for _, a := range req.Attachments {
			fmt.Fprintf(&b, "- %s: %s...\n", a.Name, truncate(a.URL, 100))
		}
	}
	return b.String()
}

func modifyPrompt(req core.ModifyRequest) string {
	return fmt.Sprintf(`Modify the existing code in repository '%s' based on this request: %s

Return the updated code as a JSON object with file names as keys and file contents as values.
`, req.RepoName, req.Modification)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
