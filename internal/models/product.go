package models

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product representa un producto del catálogo.
// Los nombres bson coinciden con los json para que sort y projection
// por query param apunten al mismo campo almacenado.
type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Price       float64            `json:"price" bson:"price"`
	Category    string             `json:"category" bson:"category"`
	InStock     bool               `json:"inStock" bson:"inStock"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ProductInput es el body de creación. Punteros donde "ausente" y
// "cero" significan cosas distintas (price 0 es válido, price ausente no).
type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"required"`
	InStock     *bool    `json:"inStock"`
}

// ProductUpdate representa un patch parcial: solo los campos enviados cambian.
type ProductUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	InStock     *bool    `json:"inStock"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Reportar violaciones con el nombre json del campo, no el de Go.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize recorta espacios alrededor de los campos de texto.
func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
}

// Validate devuelve la lista de reglas violadas, vacía si el input es válido.
func (in ProductInput) Validate() []string {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	violations := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, violationMessage(fe))
	}
	return violations
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// ToProduct construye la entidad lista para insertar.
// inStock omitido en el body queda en true.
func (in ProductInput) ToProduct() *Product {
	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}

	return &Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Category:    in.Category,
		InStock:     inStock,
	}
}

// Normalize recorta los campos de texto que sí vinieron en el patch.
func (u *ProductUpdate) Normalize() {
	if u.Name != nil {
		trimmed := strings.TrimSpace(*u.Name)
		u.Name = &trimmed
	}
	if u.Description != nil {
		trimmed := strings.TrimSpace(*u.Description)
		u.Description = &trimmed
	}
	if u.Category != nil {
		trimmed := strings.TrimSpace(*u.Category)
		u.Category = &trimmed
	}
}

// Validate chequea solo los campos presentes en el patch.
func (u ProductUpdate) Validate() []string {
	var violations []string

	if u.Name != nil && *u.Name == "" {
		violations = append(violations, "name cannot be empty")
	}
	if u.Description != nil && *u.Description == "" {
		violations = append(violations, "description cannot be empty")
	}
	if u.Category != nil && *u.Category == "" {
		violations = append(violations, "category cannot be empty")
	}
	if u.Price != nil && *u.Price < 0 {
		violations = append(violations, "price must be greater than or equal to 0")
	}

	return violations
}

// SetDocument arma el documento $set con los campos enviados.
func (u ProductUpdate) SetDocument() bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.InStock != nil {
		set["inStock"] = *u.InStock
	}
	return set
}

// CategoryStat es una fila del agregado por categoría.
// OutOfStockCount e InStockPercentage se derivan después del pipeline.
type CategoryStat struct {
	Category          string  `json:"category" bson:"_id"`
	Count             int64   `json:"count" bson:"count"`
	AveragePrice      float64 `json:"averagePrice" bson:"averagePrice"`
	TotalValue        float64 `json:"totalValue" bson:"totalValue"`
	MinPrice          float64 `json:"minPrice" bson:"minPrice"`
	MaxPrice          float64 `json:"maxPrice" bson:"maxPrice"`
	InStockCount      int64   `json:"inStockCount" bson:"inStockCount"`
	OutOfStockCount   int64   `json:"outOfStockCount" bson:"-"`
	InStockPercentage float64 `json:"inStockPercentage" bson:"-"`
}

// PriceStats es el agregado global de precios, sin agrupar por categoría.
type PriceStats struct {
	AveragePrice        float64 `json:"averagePrice" bson:"averagePrice"`
	MinPrice            float64 `json:"minPrice" bson:"minPrice"`
	MaxPrice            float64 `json:"maxPrice" bson:"maxPrice"`
	TotalInventoryValue float64 `json:"totalInventoryValue" bson:"totalInventoryValue"`
}
