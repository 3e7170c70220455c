package models

// Client is a customer of the service company.
type Client struct {
	Record

	Name        string `json:"name" validate:"required"`
	ContactName string `json:"contactName,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
}

// Site is a client location where equipment is installed and interventions happen.
type Site struct {
	Record

	ClientID string `json:"clientId" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	Contact  string `json:"contact,omitempty"`
}
