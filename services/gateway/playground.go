package gateway

import "net/http"

// playgroundHTML is a minimal GraphiQL page pointed at /graphql, served
// only when the operator opts in; it has no build step and no external
// asset dependency beyond the CDN-hosted GraphiQL bundle.
const playgroundHTML = `<!DOCTYPE html>
<html>
<head>
  <title>ryotgo gateway</title>
  <style>body { margin: 0; height: 100vh; }</style>
  <link rel="stylesheet" href="https://unpkg.com/graphiql/graphiql.min.css" />
</head>
<body>
  <div id="graphiql" style="height: 100vh;"></div>
  <script crossorigin src="https://unpkg.com/react/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: '/graphql' })
    ReactDOM.render(
      React.createElement(GraphiQL, { fetcher }),
      document.getElementById('graphiql'),
    )
  </script>
</body>
</html>`

// Playground serves the GraphiQL explorer page.
func Playground(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(playgroundHTML))
}
