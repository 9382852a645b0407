package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"experience_id",
			"user_name",
			"user_email",
			"user_phone",
			"selected_date",
			"number_of_slots",
			"total_amount",
			"final_amount",
			"status",
			"booking_reference",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"experience_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"user_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"user_email": bson.M{
				"bsonType": "string",
				"pattern":  "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$",
			},

			"user_phone": bson.M{
				"bsonType": "string",
				"pattern":  "^\\+[1-9]\\d{7,14}$",
			},

			"selected_date": bson.M{
				"bsonType": "date",
			},

			"number_of_slots": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"total_amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"discount_amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"final_amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"promo_code": bson.M{
				"bsonType": "string",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"cancelled",
				},
			},

			"booking_reference": bson.M{
				"bsonType":  "string",
				"minLength": 10,
				"maxLength": 30,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
