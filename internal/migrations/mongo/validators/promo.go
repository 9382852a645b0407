package validators

import "go.mongodb.org/mongo-driver/bson"

var PromoValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"code",
			"discount_type",
			"discount_value",
			"valid_from",
			"valid_until",
			"usage_limit",
			"used_count",
			"is_active",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"code": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 20,
				"pattern":   "^[A-Z0-9]+$",
			},

			"discount_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"percentage",
					"fixed",
				},
			},

			"discount_value": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"min_amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"max_discount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"valid_from": bson.M{
				"bsonType": "date",
			},

			"valid_until": bson.M{
				"bsonType": "date",
			},

			"usage_limit": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"used_count": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
