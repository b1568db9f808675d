package entity

// 文档字段名
const (
	FieldCompanyName = "company_name"
	FieldCompanyID   = "company_id"
)

// Document 远端存储中的文档，时间戳保留存储返回的原始字符串
type Document struct {
	ID        string
	CreatedAt string
	UpdatedAt string
	Fields    map[string]interface{}
}

// Field 读取字段，不存在时 ok 为 false
func (d *Document) Field(name string) (interface{}, bool) {
	if d == nil || d.Fields == nil {
		return nil, false
	}
	v, ok := d.Fields[name]
	return v, ok
}

// DocumentList 列表查询结果，Total 为集合中的总数
type DocumentList struct {
	Total     int64
	Documents []*Document
}
