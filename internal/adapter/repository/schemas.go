package repository

import "github.com/studyhall-app/studyhall/pkg/filterexpr"

var listDecksSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"keyword": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Keyword"},
		},
		"title": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpSW: "Keyword",
				filterexpr.OpIN: "Titles",
			},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary:     "created_at",
		DefaultPrimaryDesc: true,
		FallbackKey:        "id",
		FallbackDesc:       false,
		Fields: map[string]filterexpr.OrderField{
			"created_at": {Expr: "created_at", Nulls: "last"},
			"updated_at": {Expr: "updated_at", Nulls: "last"},
			"title":      {Expr: "title", Nulls: "last"},
			"id":         {Expr: "id", Nulls: "last"},
		},
	},
}

var listDocumentsSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"keyword": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Keyword"},
		},
		"title": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpSW: "Keyword"},
		},
		"source": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ: "Source",
				filterexpr.OpIN: "Sources",
			},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary:     "created_at",
		DefaultPrimaryDesc: true,
		FallbackKey:        "id",
		FallbackDesc:       false,
		Fields: map[string]filterexpr.OrderField{
			"created_at": {Expr: "created_at", Nulls: "last"},
			"updated_at": {Expr: "updated_at", Nulls: "last"},
			"title":      {Expr: "title", Nulls: "last"},
			"id":         {Expr: "id", Nulls: "last"},
		},
	},
}
