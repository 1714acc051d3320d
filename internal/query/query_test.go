package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseList_Defaults(t *testing.T) {
	spec := ParseList(url.Values{})

	require.Equal(t, 1, spec.Page)
	require.Equal(t, 10, spec.Limit)
	require.Equal(t, "name", spec.SortField)
	require.True(t, spec.SortAsc)
	require.Nil(t, spec.Fields)
	require.Nil(t, spec.Category)
	require.Nil(t, spec.InStock)
	require.Nil(t, spec.MinPrice)
	require.Nil(t, spec.MaxPrice)
}

func TestParseList_Page(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"valid", "3", 3},
		{"non numeric", "abc", 1},
		{"zero", "0", 1},
		{"negative", "-2", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := ParseList(url.Values{"page": {tc.raw}})
			require.Equal(t, tc.want, spec.Page)
		})
	}
}

func TestParseList_Limit(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"valid", "25", 25},
		{"non numeric", "abc", 10},
		{"below one", "0", 10},
		{"above max clamped", "500", 100},
		{"exactly max", "100", 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := ParseList(url.Values{"limit": {tc.raw}})
			require.Equal(t, tc.want, spec.Limit)
		})
	}
}

func TestParseList_Sort(t *testing.T) {
	t.Run("ascending by default direction", func(t *testing.T) {
		spec := ParseList(url.Values{"sort": {"price"}})
		require.Equal(t, "price", spec.SortField)
		require.True(t, spec.SortAsc)
	})

	t.Run("dash prefix means descending", func(t *testing.T) {
		spec := ParseList(url.Values{"sort": {"-price"}})
		require.Equal(t, "price", spec.SortField)
		require.False(t, spec.SortAsc)
	})

	t.Run("unknown field passes through", func(t *testing.T) {
		spec := ParseList(url.Values{"sort": {"whatever"}})
		require.Equal(t, "whatever", spec.SortField)
	})

	t.Run("bare dash keeps default", func(t *testing.T) {
		spec := ParseList(url.Values{"sort": {"-"}})
		require.Equal(t, "name", spec.SortField)
		require.True(t, spec.SortAsc)
	})
}

func TestParseList_Fields(t *testing.T) {
	spec := ParseList(url.Values{"fields": {"name, price ,category,,"}})
	require.Equal(t, []string{"name", "price", "category"}, spec.Fields)
}

func TestParseList_Category(t *testing.T) {
	t.Run("trimmed", func(t *testing.T) {
		spec := ParseList(url.Values{"category": {"  Electronics  "}})
		require.NotNil(t, spec.Category)
		require.Equal(t, "Electronics", *spec.Category)
	})

	t.Run("blank is absent", func(t *testing.T) {
		spec := ParseList(url.Values{"category": {"   "}})
		require.Nil(t, spec.Category)
	})
}

func TestParseList_InStock(t *testing.T) {
	t.Run("literal true", func(t *testing.T) {
		spec := ParseList(url.Values{"inStock": {"true"}})
		require.NotNil(t, spec.InStock)
		require.True(t, *spec.InStock)
	})

	t.Run("anything else supplied is false", func(t *testing.T) {
		for _, raw := range []string{"false", "TRUE", "1", "yes"} {
			spec := ParseList(url.Values{"inStock": {raw}})
			require.NotNil(t, spec.InStock, "inStock=%s", raw)
			require.False(t, *spec.InStock, "inStock=%s", raw)
		}
	})

	t.Run("absent means no filter", func(t *testing.T) {
		spec := ParseList(url.Values{})
		require.Nil(t, spec.InStock)
	})
}

func TestParseList_PriceRange(t *testing.T) {
	t.Run("both bounds", func(t *testing.T) {
		spec := ParseList(url.Values{"minPrice": {"10.5"}, "maxPrice": {"99.99"}})
		require.NotNil(t, spec.MinPrice)
		require.NotNil(t, spec.MaxPrice)
		require.Equal(t, 10.5, *spec.MinPrice)
		require.Equal(t, 99.99, *spec.MaxPrice)
	})

	t.Run("unparsable is omitted, not an error", func(t *testing.T) {
		spec := ParseList(url.Values{"minPrice": {"cheap"}, "maxPrice": {"expensive"}})
		require.Nil(t, spec.MinPrice)
		require.Nil(t, spec.MaxPrice)
	})
}

func TestParseSearch(t *testing.T) {
	t.Run("missing q", func(t *testing.T) {
		_, err := ParseSearch(url.Values{})
		require.ErrorIs(t, err, ErrMissingSearchTerm)
	})

	t.Run("blank q", func(t *testing.T) {
		_, err := ParseSearch(url.Values{"q": {"   "}})
		require.ErrorIs(t, err, ErrMissingSearchTerm)
	})

	t.Run("term trimmed, pagination parsed", func(t *testing.T) {
		spec, err := ParseSearch(url.Values{"q": {" phone "}, "page": {"2"}, "limit": {"5"}})
		require.NoError(t, err)
		require.Equal(t, "phone", spec.Search)
		require.Equal(t, 2, spec.Page)
		require.Equal(t, 5, spec.Limit)
	})
}

func TestFilter(t *testing.T) {
	t.Run("empty spec matches everything", func(t *testing.T) {
		require.Equal(t, bson.M{}, Spec{}.Filter())
	})

	t.Run("category is anchored and case insensitive", func(t *testing.T) {
		category := "Electronics"
		filter := Spec{Category: &category}.Filter()
		require.Equal(t, bson.M{
			"category": bson.M{"$regex": "^Electronics$", "$options": "i"},
		}, filter)
	})

	t.Run("category with regex metacharacters is quoted", func(t *testing.T) {
		category := "c++ books"
		filter := Spec{Category: &category}.Filter()
		require.Equal(t, "^c\\+\\+ books$", filter["category"].(bson.M)["$regex"])
	})

	t.Run("stock equality", func(t *testing.T) {
		inStock := false
		filter := Spec{InStock: &inStock}.Filter()
		require.Equal(t, bson.M{"inStock": false}, filter)
	})

	t.Run("price bounds are inclusive and independent", func(t *testing.T) {
		min, max := 15.0, 25.0
		require.Equal(t, bson.M{"price": bson.M{"$gte": 15.0, "$lte": 25.0}},
			Spec{MinPrice: &min, MaxPrice: &max}.Filter())
		require.Equal(t, bson.M{"price": bson.M{"$gte": 15.0}},
			Spec{MinPrice: &min}.Filter())
		require.Equal(t, bson.M{"price": bson.M{"$lte": 25.0}},
			Spec{MaxPrice: &max}.Filter())
	})

	t.Run("filters combine with AND", func(t *testing.T) {
		category := "books"
		inStock := true
		min := 5.0
		filter := Spec{Category: &category, InStock: &inStock, MinPrice: &min}.Filter()
		require.Len(t, filter, 3)
	})
}

func TestSearchFilter(t *testing.T) {
	filter := Spec{Search: "phone"}.SearchFilter()

	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 3)

	pattern := bson.M{"$regex": "phone", "$options": "i"}
	require.Equal(t, []bson.M{
		{"name": pattern},
		{"description": pattern},
		{"category": pattern},
	}, or)
}

func TestSort(t *testing.T) {
	require.Equal(t, bson.D{{Key: "name", Value: 1}},
		Spec{SortField: "name", SortAsc: true}.Sort())
	require.Equal(t, bson.D{{Key: "price", Value: -1}},
		Spec{SortField: "price", SortAsc: false}.Sort())
}

func TestProjection(t *testing.T) {
	t.Run("absent field list means no projection", func(t *testing.T) {
		require.Nil(t, Spec{}.Projection())
	})

	t.Run("inclusion only", func(t *testing.T) {
		projection := Spec{Fields: []string{"name", "price"}}.Projection()
		require.Equal(t, bson.M{"name": 1, "price": 1}, projection)
	})
}

func TestSkip(t *testing.T) {
	require.Equal(t, int64(0), Spec{Page: 1, Limit: 10}.Skip())
	require.Equal(t, int64(10), Spec{Page: 2, Limit: 10}.Skip())
	require.Equal(t, int64(190), Spec{Page: 20, Limit: 10}.Skip())
	require.Equal(t, int64(500), Spec{Page: 6, Limit: 100}.Skip())
}

func TestNewPageMeta(t *testing.T) {
	t.Run("empty result set", func(t *testing.T) {
		meta := NewPageMeta(1, 10, 0)
		require.Equal(t, 1, meta.CurrentPage)
		require.Equal(t, 0, meta.TotalPages)
		require.False(t, meta.HasNext)
		require.False(t, meta.HasPrev)
		require.Nil(t, meta.NextPage)
		require.Nil(t, meta.PrevPage)
	})

	t.Run("middle page", func(t *testing.T) {
		meta := NewPageMeta(2, 10, 35)
		require.Equal(t, 4, meta.TotalPages)
		require.True(t, meta.HasNext)
		require.True(t, meta.HasPrev)
		require.Equal(t, 3, *meta.NextPage)
		require.Equal(t, 1, *meta.PrevPage)
	})

	t.Run("last page", func(t *testing.T) {
		meta := NewPageMeta(4, 10, 35)
		require.False(t, meta.HasNext)
		require.True(t, meta.HasPrev)
		require.Nil(t, meta.NextPage)
	})

	t.Run("exact multiple", func(t *testing.T) {
		meta := NewPageMeta(1, 10, 30)
		require.Equal(t, 3, meta.TotalPages)
	})
}
