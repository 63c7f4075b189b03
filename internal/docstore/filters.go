package docstore

import (
	"regexp"

	"devgram/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// containsRegex matches q as a literal, case-insensitive substring.
func containsRegex(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}

func userSearchFilter(q string) bson.M {
	re := containsRegex(q)
	return bson.M{"$or": bson.A{
		bson.M{"username": re},
		bson.M{"fullName": re},
	}}
}

func postSearchFilter(q string) bson.M {
	re := containsRegex(q)
	return bson.M{"$or": bson.A{
		bson.M{"content": re},
		bson.M{"caption": re},
		bson.M{"comments.text": re},
	}}
}

// similarFilter returns nil when the source has nothing to compare on.
func similarFilter(source *models.Post) bson.M {
	var or bson.A
	if source.Content != "" {
		or = append(or, bson.M{"content": containsRegex(source.Content)})
	}
	if source.Caption != "" {
		or = append(or, bson.M{"caption": containsRegex(source.Caption)})
	}
	if source.Language != "" {
		or = append(or, bson.M{"language": source.Language})
	}
	if len(or) == 0 {
		return nil
	}
	return bson.M{"_id": bson.M{"$ne": source.ID}, "$or": or}
}

// toggleMemberPipeline removes username from the array field when present
// and adds it otherwise. When counter is set, it is rewritten to the new
// array size in the same update.
func toggleMemberPipeline(field, username, counter string) mongo.Pipeline {
	current := bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			field: bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{username, current}},
				bson.M{"$filter": bson.M{
					"input": current,
					"cond":  bson.M{"$ne": bson.A{"$$this", username}},
				}},
				bson.M{"$concatArrays": bson.A{current, bson.A{username}}},
			}},
		}}},
	}
	if counter != "" {
		pipeline = append(pipeline, bson.D{{Key: "$set", Value: bson.M{
			counter: bson.M{"$size": "$" + field},
		}}})
	}
	return pipeline
}

func inboxFilter(username string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender": username},
		bson.M{"receiver": username},
	}}
}

func threadFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender": a, "receiver": b},
		bson.M{"sender": b, "receiver": a},
	}}
}

func markReadFilter(recipient string, ids []string) bson.M {
	return bson.M{"recipient": recipient, "_id": bson.M{"$in": ids}, "read": false}
}
