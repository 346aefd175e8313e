package lasr

// Version is the compiler version recorded in assembled manifests.
const Version = "0.3.0"
