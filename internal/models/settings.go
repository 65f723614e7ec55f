package models

// Settings holds the GHE connection settings persisted by the relay
type Settings struct {
	GHEAddress     string `json:"ghe_ip_address"`
	GHEAccessToken string `json:"ghe_access_token"`
	Debug          bool   `json:"debug"`
}

// Masked returns a copy with the access token hidden
func (s Settings) Masked() Settings {
	if s.GHEAccessToken == "" {
		return s
	}
	token := s.GHEAccessToken
	if len(token) > 4 {
		token = "****" + token[len(token)-4:]
	} else {
		token = "****"
	}
	s.GHEAccessToken = token
	return s
}

// SettingsRequest wraps settings the way the settings endpoint exchanges them
type SettingsRequest struct {
	Config *Settings `json:"config"`
}

// ExampleSettings returns the example settings shape
func ExampleSettings() SettingsRequest {
	return SettingsRequest{Config: &Settings{
		GHEAddress:     "1.1.1.1",
		GHEAccessToken: "<personal access token>",
		Debug:          false,
	}}
}
