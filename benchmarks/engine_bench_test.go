package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/cascade-orm/cascade/engine"
	"github.com/cascade-orm/cascade/schema"
	"github.com/cascade-orm/cascade/storage"
	"github.com/cascade-orm/cascade/storage/storagetest"
)

func benchEngine(b *testing.B) (*engine.Engine, *storagetest.Store) {
	b.Helper()

	source, err := schema.NewStaticSource(
		schema.EntityDescriptor{
			Name: "Company",
			Properties: []schema.PropertyDescriptor{
				{Name: "id", Type: schema.TypeInt, PrimaryKey: true},
				{Name: "name", Type: schema.TypeString},
				{Name: "employees", Relation: &schema.RelationDescriptor{
					Kind:          schema.OneToMany,
					Target:        "Employee",
					CascadeOnSave: true,
				}},
			},
		},
		schema.EntityDescriptor{
			Name: "Employee",
			Properties: []schema.PropertyDescriptor{
				{Name: "id", Type: schema.TypeInt, PrimaryKey: true},
				{Name: "name", Type: schema.TypeString},
				{Name: "companyId", Type: schema.TypeInt},
				{Name: "company", Relation: &schema.RelationDescriptor{
					Kind:   schema.ManyToOne,
					Target: "Company",
				}},
			},
		},
	)
	if err != nil {
		b.Fatal(err)
	}

	reg := schema.New(source)
	if _, err := reg.Register("Company"); err != nil {
		b.Fatal(err)
	}

	store := storagetest.New()
	return engine.New(reg, store), store
}

// BenchmarkEngineCreate benchmarks a flat create with no relations
func BenchmarkEngineCreate(b *testing.B) {
	eng, _ := benchEngine(b)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := eng.Create(ctx, "Company", engine.Entity{"name": "Acme"})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEngineCreateCascade benchmarks a create that saves a one-to-many
// branch of ten children
func BenchmarkEngineCreateCascade(b *testing.B) {
	eng, _ := benchEngine(b)
	ctx := context.Background()

	children := make([]engine.Entity, 10)
	for i := range children {
		children[i] = engine.Entity{"name": fmt.Sprintf("employee-%d", i)}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		ent := engine.Entity{"name": "Acme", "employees": children}
		if _, err := eng.Create(ctx, "Company", ent); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEngineReadByID benchmarks a primary key read without relations
func BenchmarkEngineReadByID(b *testing.B) {
	eng, store := benchEngine(b)
	ctx := context.Background()

	store.Seed("companies", storage.Record{"id": int64(1), "name": "Acme"})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := eng.ReadByID(ctx, "Company", 1); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEngineReadNested benchmarks a read that resolves a one-to-many
// relation path over a hundred children
func BenchmarkEngineReadNested(b *testing.B) {
	eng, store := benchEngine(b)
	ctx := context.Background()

	store.Seed("companies", storage.Record{"id": int64(1), "name": "Acme"})
	for i := 0; i < 100; i++ {
		store.Seed("employees", storage.Record{
			"id":         int64(i + 1),
			"name":       fmt.Sprintf("employee-%d", i),
			"company_id": int64(1),
		})
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := eng.ReadByID(ctx, "Company", 1, "employees"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEngineFilteredRead benchmarks a filtered scan over a seeded table
func BenchmarkEngineFilteredRead(b *testing.B) {
	eng, store := benchEngine(b)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		store.Seed("employees", storage.Record{
			"id":         int64(i + 1),
			"name":       fmt.Sprintf("employee-%d", i%10),
			"company_id": int64(i % 7),
		})
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := eng.Read(ctx, "Employee", engine.ReadOptions{
			Filters: []engine.Filter{engine.Eq("name", "employee-3")},
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}
