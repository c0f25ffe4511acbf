// Package catalog loads product records from files or a REST endpoint into the
// knowledge base.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/kioku/internal/models"
)

// DocTypeProduct is the metadata "type" of product documents.
const DocTypeProduct = "product"

// ErrMissingName is returned for a product record without a name.
var ErrMissingName = errors.New("product has no name")

// Product is one catalog record. Fields keeps every field of the record as
// decoded, including the ones with dedicated struct fields.
type Product struct {
	Name        string
	Price       string
	Category    string
	Stock       string
	Description string
	Fields      map[string]interface{}
}

// ProductFromFields builds a product from a decoded record.
func ProductFromFields(fields map[string]interface{}) (*Product, error) {
	p := &Product{
		Name:        strings.TrimSpace(formatValue(fields["name"])),
		Price:       formatValue(fields["price"]),
		Category:    formatValue(fields["category"]),
		Stock:       formatValue(fields["stock"]),
		Description: formatValue(fields["description"]),
		Fields:      fields,
	}
	if p.Name == "" {
		return nil, ErrMissingName
	}
	return p, nil
}

// Content is the text indexed for the product.
func (p *Product) Content() string {
	return fmt.Sprintf("Product: %s. Price: %s. Category: %s. Stock: %s. Description: %s",
		p.Name, p.Price, p.Category, p.Stock, p.Description)
}

// Metadata returns every record field plus type=product.
func (p *Product) Metadata() map[string]interface{} {
	md := make(map[string]interface{}, len(p.Fields)+1)
	for k, v := range p.Fields {
		md[k] = v
	}
	md["type"] = DocTypeProduct
	return md
}

// Input returns the document input for the product, titled by its name.
func (p *Product) Input() *models.DocumentInput {
	return &models.DocumentInput{
		Title:    p.Name,
		Content:  p.Content(),
		Metadata: p.Metadata(),
	}
}

// formatValue renders a decoded scalar the way it appears in the source data:
// whole numbers without a decimal point, missing values as "".
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
