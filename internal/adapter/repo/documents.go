package repo

import "donationhub/internal/domain"

// itemDoc is the stored shape of a donation item, shared by the jsonb column
// and the Mongo sub-document. Field names follow the web client's payloads.
type itemDoc struct {
	Name        string     `json:"itemName" bson:"itemName"`
	Quantity    int        `json:"quantity" bson:"quantity"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Images      []imageDoc `json:"images,omitempty" bson:"images,omitempty"`
}

type imageDoc struct {
	URL      string `json:"url" bson:"url"`
	Analysis string `json:"analysis,omitempty" bson:"analysis,omitempty"`
}

func toItemDocs(items []domain.DonationItem) []itemDoc {
	out := make([]itemDoc, 0, len(items))
	for _, it := range items {
		doc := itemDoc{Name: it.Name, Quantity: it.Quantity, Description: it.Description}
		for _, img := range it.Images {
			doc.Images = append(doc.Images, imageDoc{URL: img.URL, Analysis: img.Analysis})
		}
		out = append(out, doc)
	}
	return out
}

func fromItemDocs(docs []itemDoc) []domain.DonationItem {
	out := make([]domain.DonationItem, 0, len(docs))
	for _, doc := range docs {
		it := domain.DonationItem{Name: doc.Name, Quantity: doc.Quantity, Description: doc.Description}
		for _, img := range doc.Images {
			it.Images = append(it.Images, domain.ItemImage{URL: img.URL, Analysis: img.Analysis})
		}
		out = append(out, it)
	}
	return out
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
