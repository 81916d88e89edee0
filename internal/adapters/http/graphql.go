package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	farmerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Farmer",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"info":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"active":   &graphql.Field{Type: graphql.Boolean},
			"distance": &graphql.Field{Type: graphql.Float},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CustomMarker",
		Fields: graphql.Fields{
			"position": &graphql.Field{Type: geoPointType},
			"label":    &graphql.Field{Type: graphql.String},
		},
	})

	routeStepType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteStep",
		Fields: graphql.Fields{
			"instruction": &graphql.Field{Type: graphql.String},
			"distance":    &graphql.Field{Type: graphql.String},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteResult",
		Fields: graphql.Fields{
			"path":  &graphql.Field{Type: graphql.NewList(geoPointType)},
			"steps": &graphql.Field{Type: graphql.NewList(routeStepType)},
		},
	})

	destinationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Destination",
		Fields: graphql.Fields{
			"kind":      &graphql.Field{Type: graphql.String},
			"farmer_id": &graphql.Field{Type: graphql.String},
			"address":   &graphql.Field{Type: graphql.String},
			"coord":     &graphql.Field{Type: geoPointType},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LocationSession",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"position":       &graphql.Field{Type: geoPointType},
			"origin_address": &graphql.Field{Type: graphql.String},
			"destination":    &graphql.Field{Type: destinationType},
			"route":          &graphql.Field{Type: routeType},
			"route_state":    &graphql.Field{Type: graphql.String},
			"markers":        &graphql.Field{Type: graphql.NewList(markerType)},
		},
	})

	deliveryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Delivery",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"order_id":    &graphql.Field{Type: graphql.String},
			"customer_id": &graphql.Field{Type: graphql.String},
			"farmer_id":   &graphql.Field{Type: graphql.String},
			"dropoff":     &graphql.Field{Type: geoPointType},
			"courier_id":  &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"farmers": &graphql.Field{
				Type:        graphql.NewList(farmerType),
				Description: "List the full farmer directory",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Farmers.List(p.Context)
				},
			},
			"nearbyFarmers": &graphql.Field{
				Type:        graphql.NewList(farmerType),
				Description: "All farmers annotated with distance from an origin",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					origin := &domain.GeoPoint{
						Lat: p.Args["lat"].(float64),
						Lng: p.Args["lng"].(float64),
					}
					return deps.Farmers.Nearby(p.Context, origin)
				},
			},
			"farmer": &graphql.Field{
				Type:        farmerType,
				Description: "Get a farmer by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Farmers.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Get a location session by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.GetSession(p.Context, p.Args["id"].(string))
				},
			},
			"delivery": &graphql.Field{
				Type:        deliveryType,
				Description: "Get a delivery by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Deliveries.GetByID(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
