package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/montanaflynn/stats"
	"go.mongodb.org/mongo-driver/bson"

	"products-api/internal/models"
	"products-api/internal/query"
	"products-api/internal/repository"
)

// ProductStore define lo que el handler necesita del repositorio.
// Permite testear handlers con stubs sin tocar Mongo.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Find(ctx context.Context, spec query.Spec) ([]models.Product, int64, error)
	Search(ctx context.Context, spec query.Spec) ([]models.Product, int64, error)
	Update(ctx context.Context, id string, set bson.M) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	CategoryStats(ctx context.Context) ([]models.CategoryStat, error)
	PriceStatistics(ctx context.Context) (*models.PriceStats, error)
	Counts(ctx context.Context) (total, inStock int64, err error)
}

type ProductHandler struct {
	store      ProductStore
	production bool
}

// NewProductHandler crea el handler. En producción los errores 500 no
// exponen el detalle interno.
func NewProductHandler(store ProductStore, production bool) *ProductHandler {
	return &ProductHandler{
		store:      store,
		production: production,
	}
}

// ListProducts maneja GET /products con filtros, orden, paginación y
// proyección de campos.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	spec := query.ParseList(c.Request.URL.Query())

	products, total, err := h.store.Find(c.Request.Context(), spec)
	if err != nil {
		h.serverError(c, "failed to list products", err)
		return
	}

	meta := query.NewPageMeta(spec.Page, spec.Limit, total)

	c.JSON(http.StatusOK, gin.H{
		"pagination": gin.H{
			"currentPage":   meta.CurrentPage,
			"totalPages":    meta.TotalPages,
			"totalProducts": meta.Total,
			"hasNext":       meta.HasNext,
			"hasPrev":       meta.HasPrev,
			"nextPage":      meta.NextPage,
			"prevPage":      meta.PrevPage,
		},
		"filters":  appliedFilters(spec),
		"count":    len(products),
		"products": products,
	})
}

// SearchProducts maneja GET /products/search. q ausente o en blanco es
// 400, no un resultado vacío.
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	spec, err := query.ParseSearch(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	products, total, err := h.store.Search(c.Request.Context(), spec)
	if err != nil {
		h.serverError(c, "failed to search products", err)
		return
	}

	meta := query.NewPageMeta(spec.Page, spec.Limit, total)

	c.JSON(http.StatusOK, gin.H{
		"search": gin.H{
			"query":        spec.Search,
			"currentPage":  meta.CurrentPage,
			"totalPages":   meta.TotalPages,
			"totalResults": meta.Total,
			"hasNext":      meta.HasNext,
			"hasPrev":      meta.HasPrev,
		},
		"results":  len(products),
		"products": products,
	})
}

// GetStats maneja GET /products/stats: conteos globales, agregado de
// precios y estadísticas por categoría, siempre recalculados.
func (h *ProductHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	total, inStock, err := h.store.Counts(ctx)
	if err != nil {
		h.serverError(c, "failed to compute statistics", err)
		return
	}

	categories, err := h.store.CategoryStats(ctx)
	if err != nil {
		h.serverError(c, "failed to compute statistics", err)
		return
	}

	priceStats, err := h.store.PriceStatistics(ctx)
	if err != nil {
		h.serverError(c, "failed to compute statistics", err)
		return
	}

	for i := range categories {
		finalizeCategoryStat(&categories[i])
	}

	inStockPercentage := "0.00"
	if total > 0 {
		inStockPercentage = formatPercentage(inStock, total)
	}

	// Colección vacía: objeto vacío en vez de fallar.
	var priceStatistics any = gin.H{}
	if priceStats != nil {
		priceStats.AveragePrice = round2(priceStats.AveragePrice)
		priceStats.TotalInventoryValue = round2(priceStats.TotalInventoryValue)
		priceStatistics = priceStats
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": gin.H{
			"totalProducts":     total,
			"inStockCount":      inStock,
			"outOfStockCount":   total - inStock,
			"inStockPercentage": inStockPercentage,
		},
		"priceStatistics": priceStatistics,
		"categories":      categories,
		"lastUpdated":     time.Now().UTC().Format(time.RFC3339),
	})
}

// GetProduct maneja GET /products/:id.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.store.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		default:
			h.serverError(c, "failed to get product", err)
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct maneja POST /products. La validación corre antes de
// tocar el store, con la lista de reglas violadas en la respuesta.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	input.Normalize()
	if violations := input.Validate(); len(violations) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": violations,
		})
		return
	}

	product := input.ToProduct()
	if err := h.store.Create(c.Request.Context(), product); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a product with this name already exists", "field": "name"})
			return
		}
		h.serverError(c, "failed to create product", err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct maneja PUT /products/:id con semántica de patch parcial:
// solo cambian los campos enviados.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var patch models.ProductUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	patch.Normalize()
	if violations := patch.Validate(); len(violations) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": violations,
		})
		return
	}

	set := patch.SetDocument()
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	product, err := h.store.Update(c.Request.Context(), c.Param("id"), set)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		case errors.Is(err, repository.ErrDuplicateName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "a product with this name already exists", "field": "name"})
		default:
			h.serverError(c, "failed to update product", err)
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct maneja DELETE /products/:id.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		default:
			h.serverError(c, "failed to delete product", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// HealthCheck indica si el proceso está vivo. No chequea base de datos.
func (h *ProductHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// serverError responde 500 genérico. El detalle interno solo sale fuera
// de producción.
func (h *ProductHandler) serverError(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if !h.production {
		body["detail"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// appliedFilters arma el eco de filtros aplicados para la respuesta.
func appliedFilters(spec query.Spec) gin.H {
	filters := gin.H{}
	if spec.Category != nil {
		filters["category"] = *spec.Category
	}
	if spec.InStock != nil {
		filters["inStock"] = *spec.InStock
	}
	if spec.MinPrice != nil {
		filters["minPrice"] = *spec.MinPrice
	}
	if spec.MaxPrice != nil {
		filters["maxPrice"] = *spec.MaxPrice
	}
	return filters
}

// finalizeCategoryStat deriva los campos que el pipeline no calcula y
// redondea los montos a dos decimales.
func finalizeCategoryStat(stat *models.CategoryStat) {
	stat.OutOfStockCount = stat.Count - stat.InStockCount
	if stat.Count > 0 {
		stat.InStockPercentage = round2(float64(stat.InStockCount) / float64(stat.Count) * 100)
	}
	stat.AveragePrice = round2(stat.AveragePrice)
	stat.TotalValue = round2(stat.TotalValue)
}

func formatPercentage(part, total int64) string {
	value := round2(float64(part) / float64(total) * 100)
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func round2(value float64) float64 {
	rounded, err := stats.Round(value, 2)
	if err != nil {
		return 0
	}
	return rounded
}
