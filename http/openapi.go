package http

type object = map[string]any

func sessionResponses() object {
	return object{
		"200": object{"description": "Session document, {} when none was stored"},
		"401": object{"description": "not_authenticated or credential_invalid"},
		"503": object{"description": "issuer_unreachable"},
	}
}

func sessionOperations(params []object) object {
	return object{
		"parameters": params,
		"get":        object{"summary": "Get a session", "responses": sessionResponses()},
		"post":       object{"summary": "Store a session", "responses": sessionResponses()},
		"delete":     object{"summary": "Delete a session", "responses": sessionResponses()},
	}
}

func pathParam(name string) object {
	return object{"name": name, "in": "path", "required": true, "schema": object{"type": "string"}}
}

var openAPIDocument = object{
	"openapi": "3.0.3",
	"info": object{
		"title":       "cdn-sessions-storage",
		"description": "CDN sessions persistent storage",
		"version":     "1",
	},
	"paths": object{
		"/healthz": object{
			"get": object{"summary": "Liveness probe", "responses": object{"200": object{"description": "ok"}}},
		},
		SessionsPrefix + "/{package}/{name}": sessionOperations([]object{
			pathParam("package"), pathParam("name"),
		}),
		SessionsPrefix + "/{namespace}/{package}/{name}": sessionOperations([]object{
			pathParam("namespace"), pathParam("package"), pathParam("name"),
		}),
	},
}
