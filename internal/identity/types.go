package identity

// AccessResponse is the provider's token-exchange response, kept in its exact
// wire shape so it can be embedded into a session token and replayed against
// the profile endpoint later.
type AccessResponse struct {
	AccessToken  string             `json:"access_token"`
	TokenType    string             `json:"token_type,omitempty"`
	ExpiresIn    int64              `json:"expires_in,omitempty"`
	RefreshToken string             `json:"refresh_token,omitempty"`
	Scope        string             `json:"scope,omitempty"`
	Webhook      *WebhookDescriptor `json:"webhook,omitempty"`
}

// WebhookDescriptor arrives inside the token response when the authorization
// flow requested the webhook scope.
type WebhookDescriptor struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	ChannelID string `json:"channel_id,omitempty"`
}

// Profile is the subset of the provider's /users/@me object the service uses.
type Profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
	Email      string `json:"email"`
}

// DisplayName prefers the provider's global display name over the username.
func (p Profile) DisplayName() string {
	if p.GlobalName != "" {
		return p.GlobalName
	}
	return p.Username
}
