// Package esmodel provides a model layer over a search engine.
//
// A model is declared with an explicit schema. The model derives its index
// name and mapping from the schema and builds query-DSL payloads for the
// common search modes before handing them to the engine.
//
// # Models
//
//	client, _ := esmodel.New(esmodel.WithElasticsearch("http://localhost:9200"))
//	defer client.Close()
//
//	orders, _ := client.Model(esmodel.Definition{
//	    Name: "Orders",
//	    Fields: []esmodel.Field{
//	        {Name: "client", Type: esmodel.FieldText},
//	        {Name: "orderID", Type: esmodel.FieldKeyword},
//	    },
//	})
//	_, _ = orders.CreateMapping(ctx, nil)
//	_, _ = orders.IndexDocument(ctx, "o-1", map[string]any{"client": "ACME", "order_id": "A-1"})
//	hits, _ := orders.Match(ctx, map[string]any{"client": "acme"})
//
// # Typed models
//
//	type Order struct {
//	    Client  string `json:"client"`
//	    OrderID string `json:"order_id"`
//	}
//
//	typed, _ := esmodel.NewTypedModel[Order](client, def)
//	res, _ := typed.Query().Must("client", "acme").Filter("order_id", "A-1").Do(ctx)
//
// The embedded engine (WithEmbedded) runs the same models in process, for
// development and tests.
package esmodel
