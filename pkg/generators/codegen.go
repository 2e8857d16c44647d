package generators

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/observe2agent/observe2agent/pkg/models"
)

type codeFile struct {
	suffix   string
	template *template.Template
}

var codeFuncs = template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	"ident": identifier,
}

var agentFiles = []codeFile{
	{suffix: "_agent.py", template: template.Must(template.New("agent").Funcs(codeFuncs).Parse(agentTemplate))},
	{suffix: "_config.py", template: template.Must(template.New("config").Funcs(codeFuncs).Parse(agentConfigTemplate))},
	{suffix: "_orchestration.py", template: template.Must(template.New("orchestration").Funcs(codeFuncs).Parse(orchestrationTemplate))},
}

var legacyWebDriverFiles = []codeFile{
	{suffix: "_webdriver.py", template: template.Must(template.New("webdriver").Funcs(codeFuncs).Parse(webDriverTemplate))},
}

var modernAsyncDriverFiles = []codeFile{
	{suffix: "_async_driver.py", template: template.Must(template.New("async").Funcs(codeFuncs).Parse(asyncDriverTemplate))},
}

type codeData struct {
	SOP       *models.SOPDocument
	ClassName string
	Module    string
}

// GenerateCode renders automation source files for framework from the SOP.
func GenerateCode(sop *models.SOPDocument, framework models.Framework) (*models.GeneratedCode, error) {
	if sop == nil {
		return nil, ErrNilArtifact
	}

	if len(sop.Steps) == 0 {
		return nil, ErrNoSOPSteps
	}

	var files []codeFile

	switch framework {
	case models.FrameworkAgent:
		files = agentFiles
	case models.FrameworkLegacyWebDriver:
		files = legacyWebDriverFiles
	case models.FrameworkModernAsyncDriver:
		files = modernAsyncDriverFiles
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFramework, framework)
	}

	data := codeData{
		SOP:       sop,
		ClassName: className(sop.Title) + "Agent",
		Module:    strings.ReplaceAll(sop.ID, "-", "_"),
	}

	generated := &models.GeneratedCode{
		SOPID:     sop.ID,
		Framework: framework,
		Files:     make(map[string]string, len(files)),
	}

	for _, file := range files {
		var buf strings.Builder
		if err := file.template.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to render %s for %s: %w", file.template.Name(), framework, err)
		}

		name := data.Module + file.suffix
		generated.Files[name] = buf.String()
		generated.TotalLines += strings.Count(buf.String(), "\n")
	}

	names := make([]string, 0, len(generated.Files))
	for name := range generated.Files {
		names = append(names, name)
	}

	sort.Strings(names)
	generated.EntryPoint = names[0]

	if framework == models.FrameworkAgent {
		generated.EntryPoint = data.Module + "_orchestration.py"
	}

	return generated, nil
}

func className(title string) string {
	var b strings.Builder

	words := strings.FieldsFunc(title, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	for i, word := range words {
		if i == 3 {
			break
		}

		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	if b.Len() == 0 {
		return "Process"
	}

	return b.String()
}

const maxIdentifierRunes = 30

func identifier(s string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteRune('_')
		}
	}

	id := []rune(strings.TrimSuffix(b.String(), "_"))
	if len(id) > maxIdentifierRunes {
		id = id[:maxIdentifierRunes]
	}

	return strings.TrimSuffix(string(id), "_")
}

const agentTemplate = `"""Generated agent: {{.SOP.Title}}"""
import asyncio
from datetime import datetime
from typing import Any, Dict


class {{.ClassName}}:
    """Automates SOP {{.SOP.ID}}."""

    def __init__(self, config: Dict[str, Any] = None):
        self.config = config or {}
        self.sop_id = {{quote .SOP.ID}}
        self.execution_log = []

    async def execute(self) -> Dict[str, Any]:
        start = datetime.now()
        results = {"steps": [], "status": "running"}
        try:
{{- range .SOP.Steps}}
            results["steps"].append(await self.step_{{.StepNumber}}_{{ident .Title}}())
{{- end}}
            results["status"] = "completed"
        except Exception as e:
            results["status"] = "failed"
            results["error"] = str(e)
        results["duration"] = (datetime.now() - start).total_seconds()
        return results
{{range .SOP.Steps}}
    async def step_{{.StepNumber}}_{{ident .Title}}(self) -> Dict[str, Any]:
        """Step {{.StepNumber}}: {{.Title}}"""
        self.execution_log.append({{quote .Title}})
        await asyncio.sleep(0.1)
        return {
            "step": {{.StepNumber}},
            "title": {{quote .Title}},
            "status": "completed",
            "action": {{quote (print .ActionType)}},
            "system": {{quote .SystemInvolved}},
            "output": {{quote .ExpectedOutput}},
        }
{{end}}`

const agentConfigTemplate = `"""Configuration for {{.SOP.Title}}"""

SOP_CONFIG = {
    "sop_id": {{quote .SOP.ID}},
    "title": {{quote .SOP.Title}},
    "version": {{quote .SOP.Version}},
    "systems": [{{range $i, $s := .SOP.SystemsInvolved}}{{if $i}}, {{end}}{{quote $s}}{{end}}],
    "total_steps": {{len .SOP.Steps}},
}

EXECUTION_CONFIG = {
    "timeout_seconds": 300,
    "retry_count": 3,
    "headless": True,
    "screenshot_on_error": True,
}

VALIDATION_RULES = {
    "match_threshold": 0.95,
    "strict_mode": False,
}
`

const orchestrationTemplate = `"""Orchestration for {{.SOP.Title}}"""
import asyncio

from {{.Module}}_agent import {{.ClassName}}


async def execute_workflow(config=None):
    agent = {{.ClassName}}(config)
    return await agent.execute()


if __name__ == "__main__":
    result = asyncio.run(execute_workflow())
    print(f"Execution result: {result['status']}")
`

const webDriverTemplate = `"""Legacy WebDriver automation: {{.SOP.Title}}"""
import time

from selenium import webdriver
from selenium.webdriver.common.by import By


def run_automation():
    options = webdriver.ChromeOptions()
    options.add_argument("--headless")
    driver = webdriver.Chrome(options=options)
    try:
{{- range .SOP.Steps}}
        # Step {{.StepNumber}}: {{.Title}}
        print({{quote .Title}})
{{- if eq (print .ActionType) "navigate"}}
        driver.get("https://example.com")
{{- else if eq (print .ActionType) "input"}}
        driver.find_element(By.ID, "field").send_keys("value")
{{- else}}
        driver.find_element(By.ID, "button").click()
{{- end}}
        time.sleep(1)
{{- end}}
        return {"status": "completed"}
    finally:
        driver.quit()


if __name__ == "__main__":
    print(run_automation())
`

const asyncDriverTemplate = `"""Async driver automation: {{.SOP.Title}}"""
import asyncio

from playwright.async_api import async_playwright


async def run_automation():
    async with async_playwright() as p:
        browser = await p.chromium.launch(headless=True)
        page = await browser.new_page()
        try:
{{- range .SOP.Steps}}
            # Step {{.StepNumber}}: {{.Title}}
{{- if eq (print .ActionType) "navigate"}}
            await page.goto("https://example.com")
{{- else if eq (print .ActionType) "input"}}
            await page.fill("#field", "value")
{{- else}}
            await page.click("#button")
{{- end}}
{{- end}}
            return {"status": "completed"}
        finally:
            await browser.close()


if __name__ == "__main__":
    print(asyncio.run(run_automation()))
`
