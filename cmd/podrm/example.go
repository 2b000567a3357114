package main

import "github.com/eatonphil/podrm"

var addressDescription = podrm.MustDescribe(podrm.EntityDescription{
	Table: "Address",
	Columns: []podrm.Column{
		{Name: "id", Kind: podrm.IntKind},
		{Name: "postalCode", Kind: podrm.TextKind},
	},
	ID:     0,
	IDMode: podrm.Auto,
})

var personDescription = podrm.MustDescribe(podrm.EntityDescription{
	Table: "Person",
	Columns: []podrm.Column{
		{Name: "id", Kind: podrm.IntKind},
		{Name: "name", Kind: podrm.TextKind},
		{Name: "address", Kind: podrm.IntKind},
	},
	ID:     0,
	IDMode: podrm.Auto,
	ForeignKeys: []podrm.ForeignKey{
		{Column: 2, References: addressDescription},
	},
})
