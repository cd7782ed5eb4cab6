// xagent - a self-corrective RAG chatbot over live X (Twitter) content
//
// xagent answers questions about what's happening on X right now. Each
// question drives one session through a bounded answer loop: fetch recent
// posts, grade the chunks for relevance, generate an answer, grade the
// answer for groundedness and usefulness, and rewrite the question for
// another retrieval pass when grading fails. Both retry edges are bounded,
// so every session terminates with an answer - possibly an apology when X
// is unreachable or nothing relevant turns up.
//
// # Quick Start
//
// Install the command:
//
//	go install github.com/smallnest/xagent/cmd/xagent@latest
//
// Serve the HTTP chat API (reads DEEPSEEK_API_KEY and TWITTER_BEARER_TOKEN
// from the environment or a .env file):
//
//	xagent -listen :8080
//
// Or answer one question on the command line:
//
//	xagent -q "What are people saying about Go generics?"
//
// Embedding the engine in your own program:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/xagent/agent"
//		"github.com/smallnest/xagent/llm"
//		"github.com/smallnest/xagent/rag"
//		"github.com/smallnest/xagent/twitter"
//	)
//
//	func main() {
//		client, _ := llm.NewOpenAIClient("") // DEEPSEEK_API_KEY
//		fetcher, _ := twitter.NewAPIClient("") // TWITTER_BEARER_TOKEN
//		retriever := rag.NewPipelineRetriever(fetcher, rag.NewHashEmbedder(0))
//
//		engine := agent.NewEngine(retriever, client)
//		res, err := engine.Run(context.Background(), "What's trending in AI?")
//		if err != nil {
//			panic(err)
//		}
//		fmt.Println(res.Answer)
//	}
//
// # Packages
//
//   - agent: the answer loop - state machine, session, engine
//   - grader: model-backed relevance/groundedness/usefulness graders,
//     question rewriter and answer generator
//   - rag: splitting, embedding and similarity search over fetched posts
//   - twitter: post fetchers (X API v2, HTML mirror scraper, redis cache)
//   - llm: the chat-model boundary (OpenAI-compatible endpoints)
//   - store: session-history persistence (memory, sqlite, postgres)
//   - server: HTTP chat API and the built-in chat page
//   - config: YAML configuration with environment overrides
//   - log: the logging abstraction shared by all components
package xagent
