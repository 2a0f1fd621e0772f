package nepq

import (
	"encoding/json"
	"fmt"
	"strings"
)

// List builds "list <collection>".
func List(collection string) string {
	return "list " + collection
}

// Query builds "query <collection>(<filter>){<fields>}".
// filter is passed through verbatim.
func Query(collection, filter string, fields ...string) string {
	return fmt.Sprintf("query %s(%s){%s}", collection, filter, strings.Join(fields, ","))
}

// Create builds "create <collection>(<doc>){}".
func Create(collection string, doc any) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return fmt.Sprintf("create %s(%s){}", collection, b), nil
}

// Update builds "update <collection>("<id>",<doc>[,<clear>]){}".
// Fields named in clear are removed from the stored record.
func Update(collection, id string, doc any, clear ...string) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "update %s(%s,%s", collection, quote(id), b)
	if len(clear) > 0 {
		fields, _ := json.Marshal(clear)
		sb.WriteByte(',')
		sb.Write(fields)
	}
	sb.WriteString("){}")
	return sb.String(), nil
}

// DeleteOne builds `delete <collection>("<id>"){}`.
func DeleteOne(collection, id string) string {
	return fmt.Sprintf("delete %s(%s){}", collection, quote(id))
}

// DeleteMany builds `delete <collection>(["<id>",...]){}`.
func DeleteMany(collection string, ids []string) string {
	b, _ := json.Marshal(ids)
	return fmt.Sprintf("delete %s(%s){}", collection, b)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
