package gnosql_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/vinicius-lino-figueiredo/gnosql"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/memory"
)

func ExampleSingleResult() {
	ctx := context.Background()

	// Every driver implements the same Manager interface. The memory
	// driver needs no running database, so it is used here.
	m := memory.NewManager(memory.Config{})
	defer m.Close(ctx)

	// Entities can be built from maps or from structs tagged with
	// "gnosql".
	ada, _ := gnosql.NewEntity("person", map[string]any{"_id": "1", "name": "Ada", "age": 36})
	grace, _ := gnosql.NewEntity("person", person{ID: "2", Name: "Grace", Age: 85})
	_, _ = m.InsertMany(ctx, []*gnosql.Entity{ada, grace})

	e, err := gnosql.SingleResult(ctx, m, gnosql.NewSelectQuery("person",
		gnosql.WithCondition(gnosql.Gt("age", 40)),
		gnosql.WithFields("name"),
	))
	if err != nil {
		panic(err)
	}
	fmt.Println(e.Value("name"))

	_, err = gnosql.SingleResult(ctx, m, gnosql.NewSelectQuery("person"))
	fmt.Println(errors.Is(err, gnosql.ErrNonUniqueResult))

	// Output:
	// Grace
	// true
}
