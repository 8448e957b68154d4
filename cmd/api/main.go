package main

import (
	"log"
	"net/http"

	"docqa/internal/api"
	"docqa/internal/config"
	"docqa/internal/util"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	for _, dir := range []string{cfg.UploadRoot, cfg.IndexRoot} {
		if err := util.EnsureDir(dir); err != nil {
			log.Fatalf("prepare %s: %v", dir, err)
		}
	}

	h := api.NewServer(cfg)
	log.Printf("docqa api listening on %s llm_providers=%q embed_providers=%q", cfg.APIAddr, cfg.LLMProviders, cfg.EmbedProviders)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
