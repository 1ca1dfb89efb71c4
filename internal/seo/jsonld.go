package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url, lang string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if lang != "" {
		m["inLanguage"] = lang
	}
	return m
}

// Address is a postal address for LocalBusiness schemas.
type Address struct {
	Street     string
	PostalCode string
	City       string
	Country    string
}

// Clinic describes the MedicalClinic schema input.
type Clinic struct {
	Name         string
	URL          string
	Logo         string
	Phone        string
	Email        string
	Address      Address
	Latitude     float64
	Longitude    float64
	OpeningHours []string
	SameAs       []string
}

// MedicalClinic returns a schema.org MedicalClinic payload.
func MedicalClinic(c Clinic) map[string]any {
	m := map[string]any{
		"@context":         "https://schema.org",
		"@type":            "MedicalClinic",
		"name":             c.Name,
		"medicalSpecialty": "Dermatology",
		"address": map[string]any{
			"@type":           "PostalAddress",
			"streetAddress":   c.Address.Street,
			"postalCode":      c.Address.PostalCode,
			"addressLocality": c.Address.City,
			"addressCountry":  c.Address.Country,
		},
	}
	if c.URL != "" {
		m["url"] = c.URL
	}
	if c.Logo != "" {
		m["logo"] = c.Logo
	}
	if c.Phone != "" {
		m["telephone"] = c.Phone
	}
	if c.Email != "" {
		m["email"] = c.Email
	}
	if c.Latitude != 0 || c.Longitude != 0 {
		m["geo"] = map[string]any{
			"@type":     "GeoCoordinates",
			"latitude":  c.Latitude,
			"longitude": c.Longitude,
		}
	}
	if len(c.OpeningHours) > 0 {
		m["openingHours"] = c.OpeningHours
	}
	if len(c.SameAs) > 0 {
		m["sameAs"] = c.SameAs
	}
	return m
}

// QA is a question/answer pair for FAQPage.
type QA struct {
	Question string
	Answer   string
}

// FAQPage builds a schema.org FAQPage.
func FAQPage(items []QA) map[string]any {
	entities := make([]map[string]any, 0, len(items))
	for _, it := range items {
		entities = append(entities, map[string]any{
			"@type": "Question",
			"name":  it.Question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  it.Answer,
			},
		})
	}
	return map[string]any{
		"@context":   "https://schema.org",
		"@type":      "FAQPage",
		"mainEntity": entities,
	}
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// MedicalProcedure describes a treatment page.
func MedicalProcedure(name, description, url, imageURL string) map[string]any {
	m := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "MedicalProcedure",
		"name":        name,
		"description": description,
	}
	if url != "" {
		m["url"] = url
	}
	if imageURL != "" {
		m["image"] = imageURL
	}
	return m
}

// Offer lists a priced package for the prices page.
func Offer(name string, price int64, currency, url string) map[string]any {
	m := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "Offer",
		"name":          name,
		"price":         price,
		"priceCurrency": currency,
	}
	if url != "" {
		m["url"] = url
	}
	return m
}
