// Package config loads the storefront's chrono.json.
//
// Every field is optional; missing values take the defaults below. Command
// line flags override the file.
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 8080,
//	    "secureCookies": false,
//	    "shutdownTimeout": "10s"
//	  },
//	  "catalog": {
//	    "source": "s3",
//	    "bucket": "chrono-catalog",
//	    "key": "catalog.yaml",
//	    "region": "eu-west-1"
//	  },
//	  "assets": {
//	    "prefix": "https://cdn.example.com/chrono",
//	    "manifest": "dist/images.yaml"
//	  },
//	  "session": {
//	    "idleTimeout": "30m",
//	    "maxSessions": 10000,
//	    "resumeWindow": "10m"
//	  },
//	  "store": {
//	    "notificationLimit": 50
//	  },
//	  "checkout": {
//	    "standardFee": 0,
//	    "expressFee": 19.99,
//	    "taxRate": 0
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Listening on", cfg.Address())
package config
