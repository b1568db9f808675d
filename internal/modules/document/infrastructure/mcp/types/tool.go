package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldType 参数类型
type FieldType string

const (
	TypeString          FieldType = "string"
	TypeNumber          FieldType = "number"
	TypeStringOrInteger FieldType = "string|integer"
)

// Field 参数声明
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Default     interface{}
	Description string
	Enum        []string
	Min         *int64
}

// ToolDefinition 工具描述，注册后不可变
type ToolDefinition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Fields      []Field `json:"-"`
}

// ToolDescriptor 对外列出的工具信息
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Result 工具返回的文本，Success 为 false 表示业务失败
type Result struct {
	Text    string
	Success bool
}

// ToolHandler 工具处理函数，args 已通过校验并填充默认值
type ToolHandler func(ctx context.Context, args Args) (*Result, error)

// Args 已校验的参数
type Args map[string]interface{}

// String 取字符串参数
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// StringPtr 参数不存在时返回 nil
func (a Args) StringPtr(name string) *string {
	s, ok := a[name].(string)
	if !ok {
		return nil
	}
	return &s
}

// Int 取整数参数
func (a Args) Int(name string) int {
	switch v := a[name].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Value 取原始值
func (a Args) Value(name string) interface{} {
	return a[name]
}

// Has 参数是否提供
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// Descriptor 生成 JSON Schema 描述
func (d ToolDefinition) Descriptor() ToolDescriptor {
	return ToolDescriptor{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: d.InputSchema(),
	}
}

// InputSchema 生成 MCP inputSchema
func (d ToolDefinition) InputSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(d.Fields))
	required := make([]string, 0)
	for _, f := range d.Fields {
		p := map[string]interface{}{}
		switch f.Type {
		case TypeStringOrInteger:
			p["type"] = []string{"string", "integer"}
		case TypeNumber:
			p["type"] = "number"
		default:
			p["type"] = "string"
		}
		if f.Description != "" {
			p["description"] = f.Description
		}
		if len(f.Enum) > 0 {
			p["enum"] = f.Enum
		}
		if f.Default != nil {
			p["default"] = f.Default
		}
		if f.Min != nil {
			p["minimum"] = *f.Min
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// RawInputSchema inputSchema 的 JSON 编码
func (d ToolDefinition) RawInputSchema() json.RawMessage {
	raw, _ := json.Marshal(d.InputSchema())
	return raw
}

// Validate 按声明校验参数，返回填充默认值后的 Args
func (d ToolDefinition) Validate(raw map[string]interface{}) (Args, error) {
	out := make(Args, len(d.Fields))
	for _, f := range d.Fields {
		v, present := raw[f.Name]
		if !present || v == nil {
			if f.Required {
				return nil, NewInvalidArgumentError(d.Name, f.Name, "is required")
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}

		val, err := coerce(f, v)
		if err != nil {
			return nil, NewInvalidArgumentError(d.Name, f.Name, err.Error())
		}
		out[f.Name] = val
	}
	return out, nil
}

func coerce(f Field, v interface{}) (interface{}, error) {
	switch f.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %s", jsonKind(v))
		}
		if f.Required && strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("must not be empty")
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			return nil, fmt.Errorf("must be one of %s", strings.Join(f.Enum, ", "))
		}
		return s, nil

	case TypeNumber:
		n, ok := integral(v)
		if !ok {
			if outOfRange(v) {
				return nil, errIntegerOutOfRange
			}
			return nil, fmt.Errorf("expected integer number, got %s", jsonKind(v))
		}
		if f.Min != nil && n < *f.Min {
			return nil, fmt.Errorf("must be >= %d", *f.Min)
		}
		return n, nil

	case TypeStringOrInteger:
		if s, ok := v.(string); ok {
			if f.Required && strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("must not be empty")
			}
			return s, nil
		}
		if n, ok := integral(v); ok {
			return n, nil
		}
		if outOfRange(v) {
			return nil, errIntegerOutOfRange
		}
		return nil, fmt.Errorf("expected string or integer, got %s", jsonKind(v))
	}
	return v, nil
}

var errIntegerOutOfRange = errors.New("integer out of range")

// integral JSON 数字解码后可能是 float64 / json.Number / 各种整数；超出 int64 的值不算整数
func integral(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return integral(float64(n))
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

// outOfRange 整数形态但超出 int64
func outOfRange(v interface{}) bool {
	switch n := v.(type) {
	case float64:
		return n == math.Trunc(n) && !math.IsInf(n, 0) && (n < math.MinInt64 || n >= math.MaxInt64)
	case float32:
		return outOfRange(float64(n))
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return false
		}
		f, err := n.Float64()
		return err == nil && outOfRange(f) || errors.Is(err, strconv.ErrRange)
	}
	return false
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64, json.Number:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// MinValue Field.Min 辅助
func MinValue(n int64) *int64 {
	return &n
}
