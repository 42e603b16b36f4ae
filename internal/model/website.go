package model

import "time"

// GeneratedWebsite is one AI-generated candidate site for a business. A
// business may own several variations; a website always belongs to exactly
// one business.
//
// PreviewURL and DeployedAt are set together by the deployment stage: both
// nil means the site is pending deployment, both set means it is live.
type GeneratedWebsite struct {
	ID              string     `json:"id" db:"id"`
	BusinessID      string     `json:"business_id" db:"business_id"`
	TemplateName    string     `json:"template_name" db:"template_name"`
	VariationNumber int        `json:"variation_number" db:"variation_number"`
	HTMLContent     string     `json:"html_content" db:"html_content"`
	PreviewURL      *string    `json:"preview_url,omitempty" db:"preview_url"`
	DeployedAt      *time.Time `json:"deployed_at,omitempty" db:"deployed_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// PendingDeployment reports whether the website has not been deployed yet.
func (w *GeneratedWebsite) PendingDeployment() bool {
	return w.PreviewURL == nil && w.DeployedAt == nil
}
