// Package query traduce query params sueltos del HTTP en un Spec tipado
// y construye a partir de él los documentos bson de filtro, orden,
// proyección y ventana. Nunca se pasan strings crudos del cliente a la
// query de Mongo: todo pasa por acá primero.
package query

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	defaultPage      = 1
	defaultLimit     = 10
	maxLimit         = 100
	defaultSortField = "name"
)

// ErrMissingSearchTerm: el endpoint de búsqueda exige q no vacío.
var ErrMissingSearchTerm = errors.New("search term is required")

// Spec es la versión normalizada y tipada de los query params de un request.
// Se construye fresco por request y se descarta al responder.
type Spec struct {
	Category  *string
	InStock   *bool
	MinPrice  *float64
	MaxPrice  *float64
	Page      int
	Limit     int
	SortField string
	SortAsc   bool
	Fields    []string
	Search    string
}

// ParseList normaliza los params del listado. El input malformado nunca
// es error acá: degrada a defaults (comportamiento documentado, distinto
// al endpoint de búsqueda que sí falla).
func ParseList(values url.Values) Spec {
	spec := Spec{
		Page:      defaultPage,
		Limit:     defaultLimit,
		SortField: defaultSortField,
		SortAsc:   true,
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page >= 1 {
		spec.Page = page
	}

	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit >= 1 {
		spec.Limit = limit
		if spec.Limit > maxLimit {
			spec.Limit = maxLimit
		}
	}

	// Prefijo "-" invierte la dirección. El nombre del campo se pasa tal
	// cual, sin allow-list: un campo inexistente simplemente no ordena.
	if sort := strings.TrimSpace(values.Get("sort")); sort != "" {
		field := sort
		asc := true
		if strings.HasPrefix(sort, "-") {
			field = strings.TrimPrefix(sort, "-")
			asc = false
		}
		if field != "" {
			spec.SortField = field
			spec.SortAsc = asc
		}
	}

	if fields := values.Get("fields"); fields != "" {
		for _, field := range strings.Split(fields, ",") {
			if field = strings.TrimSpace(field); field != "" {
				spec.Fields = append(spec.Fields, field)
			}
		}
	}

	if category := strings.TrimSpace(values.Get("category")); category != "" {
		spec.Category = &category
	}

	// "true" literal es true; cualquier otro valor presente es false.
	if values.Has("inStock") {
		inStock := values.Get("inStock") == "true"
		spec.InStock = &inStock
	}

	if min, err := strconv.ParseFloat(values.Get("minPrice"), 64); err == nil {
		spec.MinPrice = &min
	}
	if max, err := strconv.ParseFloat(values.Get("maxPrice"), 64); err == nil {
		spec.MaxPrice = &max
	}

	return spec
}

// ParseSearch normaliza los params de búsqueda. A diferencia del listado,
// un q ausente o en blanco es un error duro de input.
func ParseSearch(values url.Values) (Spec, error) {
	term := strings.TrimSpace(values.Get("q"))
	if term == "" {
		return Spec{}, ErrMissingSearchTerm
	}

	spec := ParseList(values)
	spec.Search = term
	return spec, nil
}

// Filter arma el predicado del listado: AND implícito entre categoría,
// stock y rango de precio; solo entran los filtros presentes.
func (s Spec) Filter() bson.M {
	filter := bson.M{}

	if s.Category != nil {
		// Match exacto anclado, insensible a mayúsculas. QuoteMeta evita
		// que el valor del cliente inyecte sintaxis de regex.
		filter["category"] = bson.M{
			"$regex":   "^" + regexp.QuoteMeta(*s.Category) + "$",
			"$options": "i",
		}
	}

	if s.InStock != nil {
		filter["inStock"] = *s.InStock
	}

	price := bson.M{}
	if s.MinPrice != nil {
		price["$gte"] = *s.MinPrice
	}
	if s.MaxPrice != nil {
		price["$lte"] = *s.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	return filter
}

// SearchFilter arma el predicado de búsqueda: OR de substring insensible
// a mayúsculas sobre name, description y category. No se combina con los
// filtros del listado.
func (s Spec) SearchFilter() bson.M {
	pattern := bson.M{
		"$regex":   regexp.QuoteMeta(s.Search),
		"$options": "i",
	}
	return bson.M{"$or": []bson.M{
		{"name": pattern},
		{"description": pattern},
		{"category": pattern},
	}}
}

// Sort devuelve el documento de orden {campo: ±1}.
func (s Spec) Sort() bson.D {
	direction := 1
	if !s.SortAsc {
		direction = -1
	}
	return bson.D{{Key: s.SortField, Value: direction}}
}

// Projection devuelve la proyección de inclusión, o nil si no se pidió.
// El comportamiento de _id queda en el default de Mongo.
func (s Spec) Projection() bson.M {
	if len(s.Fields) == 0 {
		return nil
	}
	projection := bson.M{}
	for _, field := range s.Fields {
		projection[field] = 1
	}
	return projection
}

// Skip calcula el offset de la ventana: (page-1)*limit.
func (s Spec) Skip() int64 {
	return int64(s.Page-1) * int64(s.Limit)
}

// PageMeta son los metadatos de paginación calculados sobre el total
// que matchea el filtro (ignorando skip/limit).
type PageMeta struct {
	CurrentPage int
	TotalPages  int
	Total       int64
	HasNext     bool
	HasPrev     bool
	NextPage    *int
	PrevPage    *int
}

// NewPageMeta calcula totalPages = ceil(total/limit) y las banderas de
// navegación. NextPage/PrevPage quedan nil cuando no aplican.
func NewPageMeta(page, limit int, total int64) PageMeta {
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	meta := PageMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
	if meta.HasNext {
		next := page + 1
		meta.NextPage = &next
	}
	if meta.HasPrev {
		prev := page - 1
		meta.PrevPage = &prev
	}
	return meta
}
