// Package goskills adapts github.com/smallnest/goskills skill
// manifests into agent/builtin.Tool values a ToolAgent can dispatch
// to, mirroring the teacher's own adapter/goskills package
// (LoadSkillsFromDir + ConvertToLangChainTools) but targeting
// AgentMap's own Tool shape instead of langchaingo's tools.Tool.
//
// Each skill is a directory containing a skill.json manifest
// (name, description, kind) alongside whatever script the kind needs;
// LoadTools walks a skills directory the way the teacher's
// LoadSkillsFromDir does and returns one builtin.Tool per manifest.
package goskills

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/smallnest/goskills"

	"github.com/agentmap-go/agentmap/agent/builtin"
)

// kind selects which of the teacher's documented built-in skill
// actions (shell code/script, python code/script, file read/write) a
// manifest performs.
const (
	kindShellCode    = "shell_code"
	kindShellScript  = "shell_script"
	kindPythonCode   = "python_code"
	kindPythonScript = "python_script"
	kindFileRead     = "file_read"
	kindFileWrite    = "file_write"
)

// manifest is the on-disk shape of a skill.json file, grounded on the
// teacher's adapter/goskills doc.go usage examples (one named action
// per skill, a code/scriptPath/args-shaped JSON payload per call).
type manifest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Version     string `json:"version"`
}

// skillPackage implements goskills.SkillPackage (GetName/
// GetDescription/GetVersion/GetPath) — the one surface of the real
// dependency the teacher's own adapter/goskills_test.go exercises via
// its MockSkillPackage.
type skillPackage struct {
	manifest
	path string
}

func (s skillPackage) GetName() string        { return s.Name }
func (s skillPackage) GetDescription() string { return s.Description }
func (s skillPackage) GetVersion() string     { return s.Version }
func (s skillPackage) GetPath() string        { return s.path }

var _ goskills.SkillPackage = skillPackage{}

// LoadTools scans dir for one skill.json manifest per immediate
// subdirectory and wraps each as a builtin.Tool. A missing dir yields
// an empty, non-error tool list so a ToolAgent with no configured
// skills directory behaves exactly as before.
func LoadTools(dir string) ([]builtin.Tool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading skills dir %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tools := make([]builtin.Tool, 0, len(names))
	for _, name := range names {
		skillDir := filepath.Join(dir, name)
		data, err := os.ReadFile(filepath.Join(skillDir, "skill.json"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s/skill.json: %w", skillDir, err)
		}
		var m manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing %s/skill.json: %w", skillDir, err)
		}
		pkg := skillPackage{manifest: m, path: skillDir}
		tools = append(tools, builtin.Tool{
			Name:        pkg.GetName(),
			Description: pkg.GetDescription(),
			Call:        callSkill(pkg),
		})
	}
	return tools, nil
}

// callSkill dispatches on the manifest's kind the way the teacher's
// SkillTool.Call dispatches on its configured name (run_shell_code,
// run_shell_script, run_python_code, run_python_script, plus
// read/write file operations); web_search is intentionally not
// carried over, since this adapter has no configured search API
// client to back it.
func callSkill(pkg skillPackage) func(inputs map[string]any) (string, error) {
	return func(inputs map[string]any) (string, error) {
		switch pkg.Kind {
		case kindShellCode:
			return runShellCode(inputs)
		case kindShellScript:
			return runShellScript(pkg.path, inputs)
		case kindPythonCode:
			return runPythonCode(inputs)
		case kindPythonScript:
			return runPythonScript(pkg.path, inputs)
		case kindFileRead:
			return readFile(pkg.path, inputs)
		case kindFileWrite:
			return writeFile(pkg.path, inputs)
		default:
			return "", fmt.Errorf("goskill %q: unsupported kind %q", pkg.GetName(), pkg.Kind)
		}
	}
}

func runShellCode(inputs map[string]any) (string, error) {
	code, _ := inputs["code"].(string)
	if code == "" {
		return "", fmt.Errorf("run_shell_code: missing %q", "code")
	}
	cmd := exec.Command("bash", "-c", code)
	cmd.Env = append(os.Environ(), envArgs(inputs["args"])...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("run_shell_code: %w: %s", err, out)
	}
	return string(out), nil
}

func runShellScript(skillDir string, inputs map[string]any) (string, error) {
	scriptPath, _ := inputs["scriptPath"].(string)
	if scriptPath == "" {
		return "", fmt.Errorf("run_shell_script: missing %q", "scriptPath")
	}
	if !filepath.IsAbs(scriptPath) {
		scriptPath = filepath.Join(skillDir, scriptPath)
	}
	cmd := exec.Command("bash", append([]string{scriptPath}, stringArgs(inputs["args"])...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("run_shell_script: %w: %s", err, out)
	}
	return string(out), nil
}

func runPythonCode(inputs map[string]any) (string, error) {
	code, _ := inputs["code"].(string)
	if code == "" {
		return "", fmt.Errorf("run_python_code: missing %q", "code")
	}
	imports := stringArgs(inputs["imports"])
	src := ""
	for _, imp := range imports {
		src += fmt.Sprintf("import %s\n", imp)
	}
	src += code
	cmd := exec.Command(pythonBinary(), "-c", src)
	cmd.Env = append(os.Environ(), envArgs(inputs["globals"])...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("run_python_code: %w: %s", err, out)
	}
	return string(out), nil
}

func runPythonScript(skillDir string, inputs map[string]any) (string, error) {
	scriptPath, _ := inputs["scriptPath"].(string)
	if scriptPath == "" {
		return "", fmt.Errorf("run_python_script: missing %q", "scriptPath")
	}
	if !filepath.IsAbs(scriptPath) {
		scriptPath = filepath.Join(skillDir, scriptPath)
	}
	cmd := exec.Command(pythonBinary(), append([]string{scriptPath}, stringArgs(inputs["args"])...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("run_python_script: %w: %s", err, out)
	}
	return string(out), nil
}

func readFile(skillDir string, inputs map[string]any) (string, error) {
	path, _ := inputs["path"].(string)
	if path == "" {
		return "", fmt.Errorf("file_read: missing %q", "path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(skillDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("file_read: %w", err)
	}
	return string(data), nil
}

func writeFile(skillDir string, inputs map[string]any) (string, error) {
	path, _ := inputs["path"].(string)
	content, _ := inputs["content"].(string)
	if path == "" {
		return "", fmt.Errorf("file_write: missing %q", "path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(skillDir, path)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("file_write: %w", err)
	}
	return "ok", nil
}

func pythonBinary() string {
	if _, err := exec.LookPath("python3"); err == nil {
		return "python3"
	}
	return "python"
}

// stringArgs accepts either a JSON array of strings or a JSON object
// (its values stringified), matching the two argument shapes the
// teacher's doc.go examples show for positional vs. named arguments.
func stringArgs(raw any) []string {
	switch v := raw.(type) {
	case []any:
		args := make([]string, 0, len(v))
		for _, item := range v {
			args = append(args, fmt.Sprintf("%v", item))
		}
		return args
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		args := make([]string, 0, len(keys))
		for _, k := range keys {
			args = append(args, fmt.Sprintf("%v", v[k]))
		}
		return args
	default:
		return nil
	}
}

// envArgs turns a JSON object's entries into NAME=value environment
// lines, used for run_shell_code's "args" and run_python_code's
// "globals" payloads — safer than positional interpolation into a
// shell/python command line.
func envArgs(raw any) []string {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return env
}
