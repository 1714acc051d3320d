package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"products-api/internal/models"
	"products-api/internal/query"
)

// Errores centinela que los handlers mapean a códigos HTTP.
var (
	ErrNotFound      = errors.New("product not found")
	ErrInvalidID     = errors.New("invalid product ID")
	ErrDuplicateName = errors.New("product name already exists")
)

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(collection *mongo.Collection) *ProductRepository {
	return &ProductRepository{
		collection: collection,
	}
}

// EnsureIndexes crea el índice único sobre name. Los errores E11000 que
// genere se traducen en ErrDuplicateName en las escrituras.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Create inserta un producto nuevo con timestamps del servidor.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	product.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, product)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateName
	}
	return err
}

// FindByID obtiene un producto por ID.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var product models.Product
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

// Find ejecuta el listado: filtro → orden → skip → limit, con proyección
// opcional, y el conteo total del filtro en paralelo.
func (r *ProductRepository) Find(ctx context.Context, spec query.Spec) ([]models.Product, int64, error) {
	return r.findPage(ctx, spec.Filter(), spec)
}

// Search ejecuta la búsqueda de texto con la misma ventana y orden.
func (r *ProductRepository) Search(ctx context.Context, spec query.Spec) ([]models.Product, int64, error) {
	return r.findPage(ctx, spec.SearchFilter(), spec)
}

func (r *ProductRepository) findPage(ctx context.Context, filter bson.M, spec query.Spec) ([]models.Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Contar total en paralelo: puede ver otro snapshot que el find bajo
	// escrituras concurrentes, consistencia débil aceptada.
	totalCh := make(chan int64, 1)
	errCh := make(chan error, 1)

	go func() {
		total, err := r.collection.CountDocuments(ctx, filter)
		if err != nil {
			errCh <- err
			return
		}
		totalCh <- total
	}()

	findOptions := options.Find().
		SetSort(spec.Sort()).
		SetSkip(spec.Skip()).
		SetLimit(int64(spec.Limit))

	if projection := spec.Projection(); projection != nil {
		findOptions.SetProjection(projection)
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err = cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	select {
	case total := <-totalCh:
		return products, total, nil
	case err := <-errCh:
		return nil, 0, err
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
}

// Update aplica un patch parcial y devuelve el documento ya actualizado.
func (r *ProductRepository) Update(ctx context.Context, id string, set bson.M) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	set["updatedAt"] = time.Now().UTC()

	var product models.Product
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	return &product, nil
}

// Delete elimina el documento. Borrar dos veces el mismo ID da not found
// en la segunda: el borrado es físico, no lógico.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CategoryStats agrupa todos los documentos por categoría, la más
// poblada primero. El redondeo y los derivados se hacen al armar la
// respuesta; acá solo corre el pipeline.
func (r *ProductRepository) CategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, categoryStatsPipeline())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats := make([]models.CategoryStat, 0)
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// PriceStatistics calcula el agregado global de precios.
// Devuelve nil sin error cuando la colección está vacía.
func (r *ProductRepository) PriceStatistics(ctx context.Context) (*models.PriceStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, priceStatsPipeline())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.PriceStats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// Counts devuelve el total de productos y cuántos están en stock.
func (r *ProductRepository) Counts(ctx context.Context) (total, inStock int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	total, err = r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, err
	}

	inStock, err = r.collection.CountDocuments(ctx, bson.M{"inStock": true})
	if err != nil {
		return 0, 0, err
	}

	return total, inStock, nil
}

func categoryStatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          "$category",
			"count":        bson.M{"$sum": 1},
			"averagePrice": bson.M{"$avg": "$price"},
			"totalValue":   bson.M{"$sum": "$price"},
			"minPrice":     bson.M{"$min": "$price"},
			"maxPrice":     bson.M{"$max": "$price"},
			"inStockCount": bson.M{"$sum": bson.M{"$cond": bson.A{"$inStock", 1, 0}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
}

func priceStatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":                 nil,
			"averagePrice":        bson.M{"$avg": "$price"},
			"minPrice":            bson.M{"$min": "$price"},
			"maxPrice":            bson.M{"$max": "$price"},
			"totalInventoryValue": bson.M{"$sum": "$price"},
		}}},
	}
}
