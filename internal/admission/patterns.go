package admission

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// scannableExtensions are the text files checked for obfuscation and
// hardcoded chain data.
var scannableExtensions = map[string]bool{
	".py": true, ".pyi": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".md": true, ".rst": true, ".txt": true,
	".sh": true, ".bash": true, ".sql": true,
	".js": true, ".ts": true,
	".cfg": true, ".ini": true, ".conf": true,
}

var obfuscationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`exec\s*\(\s*__import__\s*\(\s*["']base64["']\s*\)`),
	regexp.MustCompile(`eval\s*\(\s*.*base64.*decode`),
	regexp.MustCompile(`exec\s*\(\s*.*base64.*decode`),
	regexp.MustCompile(`compile\s*\(\s*.*base64.*decode`),
	regexp.MustCompile(`exec\s*\(\s*compile\s*\(`),
	regexp.MustCompile(`__import__\s*\(\s*["']marshal["']\s*\)`),
}

var longBase64Pattern = regexp.MustCompile(`[A-Za-z0-9+/=]{500,}`)

var curlBashPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)curl\s+.*\|\s*bash`),
	regexp.MustCompile(`(?i)curl\s+.*\|\s*sh`),
	regexp.MustCompile(`(?i)wget\s+.*\|\s*bash`),
	regexp.MustCompile(`(?i)wget\s+.*\|\s*sh`),
}

var (
	evmAddressPattern       = regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`)
	bitcoinAddressPattern   = regexp.MustCompile(`\b[13][a-km-zA-HJ-NP-Z1-9]{25,34}\b`)
	bech32AddressPattern    = regexp.MustCompile(`\bbc1[a-z0-9]{39,59}\b`)
	substrateAddressPattern = regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{47,48}\b`)
)

// zeroedAddresses are sentinel values, not real hardcoded targets.
var zeroedAddresses = map[string]bool{
	"0x" + strings.Repeat("0", 40): true,
	"0x" + strings.Repeat("f", 40): true,
	"0x" + strings.Repeat("d", 40): true,
}

// scanFileContents checks every scannable text file for obfuscated code,
// dangerous shell patterns and hardcoded chain addresses. An artifact with
// baked-in addresses could replay findings instead of computing them.
func scanFileContents(repoPath string) ([]string, error) {
	var findings []string

	err := filepath.WalkDir(repoPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if skipDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		isDockerfile := name == "Dockerfile"
		if !scannableExtensions[ext] && !isDockerfile {
			return nil
		}

		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		content := string(raw)

		relPath, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			relPath = path
		}

		if ext == ".py" {
			findings = append(findings, scanPythonContent(relPath, content)...)
		}
		if ext == ".sh" || ext == ".bash" || isDockerfile {
			for _, pattern := range curlBashPatterns {
				if pattern.MatchString(content) {
					findings = append(findings, fmt.Sprintf("%s: remote script piped to shell", relPath))
					break
				}
			}
		}

		findings = append(findings, scanForAddresses(relPath, content)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}

func scanPythonContent(relPath string, content string) []string {
	var findings []string

	for _, pattern := range obfuscationPatterns {
		if pattern.MatchString(content) {
			findings = append(findings, fmt.Sprintf("%s: obfuscation pattern detected", relPath))
			break
		}
	}
	if longBase64Pattern.MatchString(content) {
		findings = append(findings, fmt.Sprintf("%s: long base64-like string detected", relPath))
	}
	if isMinified(content) {
		findings = append(findings, fmt.Sprintf("%s: code appears to be minified", relPath))
	}
	return findings
}

func isMinified(content string) bool {
	lines := strings.Split(content, "\n")
	if len(lines) < 3 {
		return false
	}
	nonEmpty := 0
	totalLength := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nonEmpty++
		totalLength += len(line)
	}
	if nonEmpty == 0 {
		return false
	}
	if totalLength/nonEmpty > 400 {
		return true
	}
	return strings.Count(content, ";") > nonEmpty*3
}

func scanForAddresses(relPath string, content string) []string {
	count := 0

	for _, match := range evmAddressPattern.FindAllString(content, -1) {
		if !zeroedAddresses[strings.ToLower(match)] {
			count++
		}
	}
	for _, match := range bitcoinAddressPattern.FindAllString(content, -1) {
		if len(match) >= 26 && len(match) <= 35 {
			count++
		}
	}
	count += len(bech32AddressPattern.FindAllString(content, -1))
	for _, match := range substrateAddressPattern.FindAllString(content, -1) {
		if strings.ContainsAny(match[:1], "15EGHJCF") {
			count++
		}
	}

	if count > 0 {
		return []string{fmt.Sprintf("%s: %d hardcoded chain addresses detected", relPath, count)}
	}
	return nil
}
