// Package storage writes objects to S3-compatible storage.
//
// The submission archive is the only consumer: every accepted form is kept as
// a JSON document so that a failed relay can be replayed by hand.
//
//	store, err := storage.New(storage.Config{
//		Bucket:    "giftsite-archive",
//		AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
//		SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
//		Endpoint:  "http://localhost:9000",
//		PathStyle: true,
//	})
//	if err != nil {
//		return err
//	}
//	err = store.Put(ctx, "submissions/2025/03/14/contact-1.json", body, "application/json")
//
// Errors from the SDK are normalized to the sentinels in this package; use
// errors.Is, not errors.As with AWS types.
package storage
