package bridge

import "github.com/invopop/jsonschema"

// Schema 生成线上消息的 JSON Schema，供订阅端校验
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{}
	schema := reflector.Reflect(new(Snapshot))
	schema.Title = "Entity snapshot"
	schema.Description = "One message per tick: the complete list of observed entities"
	return schema
}
