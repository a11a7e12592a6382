//go:build js && wasm

package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"syscall/js"
	"time"

	swimdata "github.com/PeterK-end/swim-data-analyser"
	"github.com/PeterK-end/swim-data-analyser/pipeline"
)

func main() {
	js.Global().Set("decodeFit", js.FuncOf(decodeFit))
	js.Global().Set("encodeDocument", js.FuncOf(encodeDocument))
	js.Global().Set("analyzeFit", js.FuncOf(analyzeFit))
	select {}
}

func failure(format string, args ...any) map[string]any {
	return map[string]any{
		"ok":    false,
		"error": fmt.Sprintf(format, args...),
	}
}

// decodeFit(fileBytes) returns the editable document as a JSON string.
func decodeFit(_ js.Value, args []js.Value) any {
	data, errResult := bytesArg(args)
	if errResult != nil {
		return errResult
	}

	doc, report, err := swimdata.Decode(data)
	if err != nil {
		return failure("%v", err)
	}
	if !doc.IsPoolSwim() {
		return failure("not a pool swim activity")
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return failure("marshal document: %v", err)
	}

	return map[string]any{
		"ok":       true,
		"document": string(out),
		"warnings": stringsToAny(report.Warnings()),
	}
}

// encodeDocument(jsonString) returns FIT bytes for an edited document.
func encodeDocument(_ js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return failure("expected arguments: document(string)")
	}

	doc, err := swimdata.ParseDocument([]byte(args[0].String()))
	if err != nil {
		return failure("%v", err)
	}

	data, err := swimdata.Encode(doc, swimdata.EncodeOptions{InMemory: true})
	if err != nil {
		return failure("%v", err)
	}

	payload := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(payload, data)

	return map[string]any{
		"ok":  true,
		"fit": payload,
	}
}

// analyzeFit(fileBytes, options) returns the export bundle as a zip.
func analyzeFit(_ js.Value, args []js.Value) any {
	data, errResult := bytesArg(args)
	if errResult != nil {
		return errResult
	}

	var optsArg js.Value
	if len(args) > 1 {
		optsArg = args[1]
	}

	result, err := pipeline.RunBytes(pipeline.BytesOptions{
		SourceFileName: getString(optsArg, "source_file_name", "input.fit"),
		FitData:        data,
		Format:         getString(optsArg, "format", "parquet"),
		CopySource:     true,
	})
	if err != nil {
		return failure("%v", err)
	}

	zipBytes, err := zipArtifacts(result.Files)
	if err != nil {
		return failure("create zip: %v", err)
	}
	payload := js.Global().Get("Uint8Array").New(len(zipBytes))
	js.CopyBytesToJS(payload, zipBytes)

	fileNames := make([]string, 0, len(result.Files))
	for name := range result.Files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	return map[string]any{
		"ok":       true,
		"zip":      payload,
		"warnings": stringsToAny(result.Warnings),
		"files":    stringsToAny(fileNames),
	}
}

func bytesArg(args []js.Value) ([]byte, map[string]any) {
	if len(args) < 1 {
		return nil, failure("expected arguments: fileBytes(Uint8Array)")
	}
	fileArg := args[0]
	if fileArg.IsUndefined() || fileArg.IsNull() || fileArg.Get("length").Int() == 0 {
		return nil, failure("fit file bytes are required")
	}

	data := make([]byte, fileArg.Get("length").Int())
	if n := js.CopyBytesToGo(data, fileArg); n == 0 {
		return nil, failure("failed to read FIT bytes from JS input")
	}
	return data, nil
}

func zipArtifacts(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fixedTime := time.Unix(0, 0).UTC()

	for _, name := range names {
		h := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		h.SetModTime(fixedTime)
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" || s == "undefined" || s == "null" {
		return fallback
	}
	return s
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
