package detect

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/phishzil/threatscan/pkg/threat"
)

const (
	// maxBenignSize is the attachment size above which a small penalty applies.
	maxBenignSize = 50 * 1024 * 1024
	// entropyWindow bounds how many leading bytes feed the entropy and
	// archive-marker checks.
	entropyWindow = 1024
	// packedEntropyThreshold marks near-random byte distributions, typical of
	// packed or encrypted payloads.
	packedEntropyThreshold = 7.5
)

// executableExtensions are filename suffixes treated as directly runnable.
var executableExtensions = map[string]bool{
	"exe": true, "scr": true, "bat": true, "cmd": true, "com": true,
	"pif": true, "vbs": true, "js": true, "jar": true, "ps1": true,
	"msi": true, "deb": true, "rpm": true,
}

// doubleExtTargets are the final extensions that make a multi-dot filename a
// spoofing attempt ("report.pdf.exe").
var doubleExtTargets = map[string]bool{"exe": true, "scr": true, "bat": true}

// documentExtensions are types where a tiny file body is itself suspicious.
var documentExtensions = map[string]bool{"pdf": true, "doc": true, "docx": true}

// codeSignatures are byte sequences associated with script-based droppers.
// Matched case-insensitively against the full content.
var codeSignatures = [][]byte{
	[]byte("eval("),
	[]byte("document.write"),
	[]byte("shell.application"),
	[]byte("wscript.shell"),
	[]byte("powershell"),
	[]byte("cmd.exe"),
}

// FileAnalyzer scores a file by name and raw bytes. It is stateless and safe
// for concurrent use.
type FileAnalyzer struct{}

// NewFileAnalyzer builds a file analyzer.
func NewFileAnalyzer() *FileAnalyzer {
	return &FileAnalyzer{}
}

// Analyze scores one attachment. Content that cannot be inspected degrades to
// an indicator with a small penalty; the method never panics outward.
func (a *FileAnalyzer) Analyze(ctx context.Context, filename string, data []byte) (result threat.AnalyzerResult) {
	result = threat.NewAnalyzerResult(threat.ChannelFile)

	defer func() {
		if r := recover(); r != nil {
			result.AddIndicator(fmt.Sprintf("File analysis error: %v", r))
			result.AddScore(0.1)
		}
	}()

	mime := "unknown"
	if len(data) > 0 {
		mime = mimetype.Detect(data).String()
	}
	result.SetMetadata("mime_type", mime)
	result.SetMetadata("size_bytes", len(data))

	lowerName := strings.ToLower(filename)
	ext := finalExtension(lowerName)

	if executableExtensions[ext] {
		result.AddScore(0.8)
		result.AddThreatType(threat.TagMaliciousExecutable)
		result.AddIndicator("Executable file extension: ." + ext)
	}

	if strings.Count(lowerName, ".") >= 2 && doubleExtTargets[ext] {
		result.AddScore(0.9)
		result.AddThreatType(threat.TagExtensionSpoofing)
		result.AddIndicator("Double extension hiding executable: " + filename)
	}

	if strings.Contains(strings.ToLower(mime), "macroenabled") {
		result.AddScore(0.6)
		result.AddThreatType(threat.TagMacroMalware)
		result.AddIndicator("Macro-enabled Office document")
	}

	if len(data) > maxBenignSize {
		result.AddScore(0.2)
		result.AddIndicator("Unusually large file")
	}
	if len(data) < 100 && documentExtensions[ext] {
		result.AddScore(0.4)
		result.AddIndicator("Document file suspiciously small")
	}

	head := data
	if len(head) > entropyWindow {
		head = head[:entropyWindow]
	}

	if entropy := ShannonEntropy(head); entropy > packedEntropyThreshold {
		result.AddScore(0.5)
		result.AddThreatType(threat.TagPackedExecutable)
		result.AddIndicator(fmt.Sprintf("High-entropy content (%.2f bits/byte), possibly packed", entropy))
	}

	if isArchiveMime(mime) && bytes.Contains(bytes.ToLower(head), []byte("encrypted")) {
		result.AddScore(0.5)
		result.AddThreatType(threat.TagEvasionTechnique)
		result.AddIndicator("Password-protected archive")
	}

	if len(data) > 0 {
		lowered := bytes.ToLower(data)
		for _, sig := range codeSignatures {
			if bytes.Contains(lowered, sig) {
				result.AddScore(0.7)
				result.AddThreatType(threat.TagMaliciousCode)
				result.AddIndicator("Suspicious code signature: " + string(sig))
			}
		}
	}

	return result
}

func finalExtension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return name[idx+1:]
}

func isArchiveMime(mime string) bool {
	return strings.Contains(mime, "zip") || strings.Contains(mime, "rar")
}

// ShannonEntropy computes -sum(p*log2(p)) over byte-value frequencies.
// An empty input has entropy exactly 0.
func ShannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	total := float64(len(data))
	entropy := 0.0
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
