package model

// JSONObject is a free-form JSON object forwarded unchanged. The auth service
// owns the shape of registration, login and user-medico update payloads.
type JSONObject map[string]any
