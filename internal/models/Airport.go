package models

import "fmt"

type Airport struct {
	Code  string `json:"code" example:"KORD"`
	City  string `json:"city" example:"Chicago"`
	State string `json:"state" example:"IL"`
}

// Label is the text shown in the airport selector.
func (a Airport) Label() string {
	return fmt.Sprintf("%s, %s (%s)", a.City, a.State, a.Code)
}
