package api

// SlugRequest is the body of POST /api/slug.
type SlugRequest struct {
	Title string `json:"title"`
}

// SlugResponse is the slug preview.
type SlugResponse struct {
	Slug string `json:"slug"`
}

// messageResponse is the contact endpoint reply.
type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ClientConfig is the public configuration served to the browser. Every
// field except MeasurementID must be set.
type ClientConfig struct {
	APIKey            string `json:"apiKey" yaml:"api_key"`
	AuthDomain        string `json:"authDomain" yaml:"auth_domain"`
	ProjectID         string `json:"projectId" yaml:"project_id"`
	StorageBucket     string `json:"storageBucket" yaml:"storage_bucket"`
	MessagingSenderID string `json:"messagingSenderId" yaml:"messaging_sender_id"`
	AppID             string `json:"appId" yaml:"app_id"`
	MeasurementID     string `json:"measurementId,omitempty" yaml:"measurement_id"`
}

// Missing returns the names of required fields that are empty.
func (c ClientConfig) Missing() []string {
	var out []string
	for _, f := range []struct{ name, value string }{
		{"api_key", c.APIKey},
		{"auth_domain", c.AuthDomain},
		{"project_id", c.ProjectID},
		{"storage_bucket", c.StorageBucket},
		{"messaging_sender_id", c.MessagingSenderID},
		{"app_id", c.AppID},
	} {
		if f.value == "" {
			out = append(out, f.name)
		}
	}
	return out
}
