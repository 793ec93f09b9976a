package processor

import (
	"fmt"

	"speech-coach-go/internal/config"
	"speech-coach-go/internal/extractor"
	"speech-coach-go/internal/llm"
	"speech-coach-go/internal/logger"
	"speech-coach-go/internal/media"
	"speech-coach-go/internal/reconciler"
	"speech-coach-go/internal/transcription"
)

// Build wires a Processor from configuration. USE_MOCK_LLM and
// USE_MOCK_TRANSCRIBE swap the external services for offline doubles.
func Build(cfg *config.Config, log *logger.Logger) (*Processor, error) {
	var model llm.Model
	if cfg.LLM.Mock {
		log.Component("processor").Info("using mock language model")
		model = NewMockModel()
	} else {
		opts := cfg.LLMOptions()
		opts.Log = log.Component("llm")
		m, err := llm.New(opts)
		if err != nil {
			return nil, fmt.Errorf("language model: %w", err)
		}
		model = m
	}

	var tr transcription.Transcriber
	if cfg.MockTranscribe {
		tr = transcription.Mock{}
	} else {
		tr = transcription.NewClient(cfg.TranscribeURL, log.Component("transcription"))
	}

	return New(Options{
		Extractor:   extractor.New(model, cfg.Filler, log.Component("extractor")),
		Reconciler:  reconciler.New(model, cfg.TimestampStyle, log.Component("reconciler")),
		Transcriber: tr,
		Prober:      media.Prober{},
		RateSource:  cfg.SpeechRateSource,
		Log:         log.Component("processor"),
	}), nil
}
