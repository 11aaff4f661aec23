package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"cloudclassify/ml"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	errNotJSON        = errors.New("request body is not JSON")
	errNotObject      = errors.New("request body is not a JSON object")
	wineRequestSchema = presenceSchema("wine.schema.json", ml.WineFeatureNames())
	irisRequestSchema = bindingSchema("iris.schema.json", ml.IrisFeatureNames())
)

// presenceSchema 要求对象包含所有字段，不限制取值
func presenceSchema(url string, names []string) *jsonschema.Schema {
	return mustCompile(url, map[string]interface{}{
		"type":     "object",
		"required": names,
	})
}

// bindingSchema 只接受给定的数值字段，不允许多余字段
func bindingSchema(url string, names []string) *jsonschema.Schema {
	properties := make(map[string]interface{}, len(names))
	for _, name := range names {
		properties[name] = map[string]string{"type": "number"}
	}
	return mustCompile(url, map[string]interface{}{
		"type":                 "object",
		"required":             names,
		"properties":           properties,
		"additionalProperties": false,
	})
}

func mustCompile(url string, schema map[string]interface{}) *jsonschema.Schema {
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return jsonschema.MustCompileString(url, string(raw))
}

// requestJSON 读取JSON请求体
// 非JSON内容类型视为没有请求体
func requestJSON(r *http.Request) (interface{}, error) {
	if !isJSON(r.Header.Get("Content-Type")) {
		return nil, errNotJSON
	}
	if r.Body == nil {
		return nil, errNotJSON
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotJSON, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", errNotJSON)
	}
	return doc, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}

// decodeFields 按schema校验请求体并返回对象
func decodeFields(r *http.Request, schema *jsonschema.Schema) (map[string]interface{}, error) {
	doc, err := requestJSON(r)
	if err != nil {
		return nil, err
	}
	fields, ok := doc.(map[string]interface{})
	if !ok {
		return nil, errNotObject
	}
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}
	return fields, nil
}
