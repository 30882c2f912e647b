// Package static produces a deterministic default site. It backs the
// builder.type=static configuration and serves as the round-1 fallback when
// the LLM builder fails.
package static

import (
	"context"
	"fmt"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/builders"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
)

// Builder emits the default site regardless of input.
type Builder struct{}

func New() *Builder { return &Builder{} }

func (b *Builder) Build(_ context.Context, req core.BuildRequest) (core.Bundle, error) {
	return core.Bundle{Files: DefaultSite(req.Brief)}, nil
}

// Modify regenerates the default site using the modification text as the
// brief. A static backend has no existing files to rework.
func (b *Builder) Modify(_ context.Context, req core.ModifyRequest) (core.Bundle, error) {
	return core.Bundle{Files: DefaultSite(req.Modification)}, nil
}

// DefaultSite returns the stock four-file site with the brief interpolated.
func DefaultSite(brief string) map[string]string {
	return map[string]string{
		"index.html": defaultHTML(brief),
		"style.css":  defaultCSS(),
		"script.js":  defaultJS(),
		"README.md":  defaultReadme(brief),
	}
}

func defaultHTML(brief string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>IITM Task - %s</title>
    <link rel="stylesheet" href="style.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>IITM Task Application</h1>
            <p>%s</p>
        </header>
        <main>
            <div class="content">
                <h2>Welcome to the Application</h2>
                <p>This is a generated application based on your task requirements.</p>
                <button id="actionBtn" class="btn">Click Me</button>
                <div id="result" class="result"></div>
            </div>
        </main>
        <footer>
            <p>&copy; 2024 IITM Task Handler</p>
        </footer>
    </div>
    <script src="script.js"></script>
</body>
</html>`, truncate(brief, 50), brief)
}

func defaultCSS() string {
	return `* {
    margin: 0;
    padding: 0;
    box-sizing: border-box;
}

body {
    font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
    line-height: 1.6;
    color: #333;
    background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
    min-height: 100vh;
}

.container {
    max-width: 800px;
    margin: 0 auto;
    padding: 20px;
    background: white;
    margin-top: 20px;
    border-radius: 10px;
    box-shadow: 0 10px 30px rgba(0,0,0,0.1);
}

header {
    text-align: center;
    margin-bottom: 30px;
    padding-bottom: 20px;
    border-bottom: 2px solid #eee;
}

header h1 {
    color: #2c3e50;
    margin-bottom: 10px;
}

header p {
    color: #7f8c8d;
    font-size: 1.1em;
}

.content {
    text-align: center;
    padding: 20px 0;
}

.btn {
    background: #3498db;
    color: white;
    padding: 12px 24px;
    border: none;
    border-radius: 5px;
    cursor: pointer;
    font-size: 16px;
    transition: background 0.3s;
    margin: 20px 0;
}

.btn:hover {
    background: #2980b9;
}

.result {
    margin-top: 20px;
    padding: 15px;
    background: #f8f9fa;
    border-radius: 5px;
    min-height: 50px;
    display: flex;
    align-items: center;
    justify-content: center;
}

footer {
    text-align: center;
    margin-top: 30px;
    padding-top: 20px;
    border-top: 1px solid #eee;
    color: #7f8c8d;
}

@media (max-width: 600px) {
    .container {
        margin: 10px;
        padding: 15px;
    }
}`
}

func defaultJS() string {
	return `document.addEventListener('DOMContentLoaded', function() {
    const actionBtn = document.getElementById('actionBtn');
    const result = document.getElementById('result');

    actionBtn.addEventListener('click', function() {
        result.innerHTML = '<p>Button clicked! Application is working.</p>';
        result.style.background = '#d4edda';
        result.style.color = '#155724';
        result.style.border = '1px solid #c3e6cb';
    });

    console.log('IITM Task Application loaded successfully');

    const urlParams = new URLSearchParams(window.location.search);
    const urlParam = urlParams.get('url');
    if (urlParam) {
        result.innerHTML = ` + "`<p>URL parameter detected: ${urlParam}</p>`" + `;
    }
});`
}

func defaultReadme(brief string) string {
	return fmt.Sprintf(`# IITM Task Application

## Overview
%s

## Setup
1. Clone this repository
2. Open `+"`index.html`"+` in a web browser
3. Or serve it using a local web server

## Usage
- Open the application in your browser
- Interact with the interface as designed
- Check browser console for any additional functionality

## Files
- `+"`index.html`"+` - Main HTML file
- `+"`style.css`"+` - Styling
- `+"`script.js`"+` - JavaScript functionality

## License
MIT License - see LICENSE file for details

## Generated by
IITM Task Handler API
`, brief)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func init() {
	builders.MustRegister(config.BuilderStatic, func(cfg config.BuilderConfig) (core.Builder, error) {
		return New(), nil
	})
}
